// Package hiderrors collects the sentinel errors shared across the
// transport and dispatch packages: exported `var Err... = errors.New(...)`
// values plus fmt.Errorf %w wrapping at the call site, rather than a
// bespoke error-code type.
package hiderrors

import "errors"

// Config errors: bad mode, out-of-range rate, malformed static address.
// Surfaced immediately, never retried.
var (
	ErrInvalidMode    = errors.New("hiderrors: invalid dispatcher mode")
	ErrInvalidRate    = errors.New("hiderrors: tick rate out of range")
	ErrInvalidAddress = errors.New("hiderrors: malformed static bluetooth address")
	ErrInvalidConfig  = errors.New("hiderrors: invalid configuration")
)

// Permission errors: missing bus policy, group membership, or write access
// to configfs / /dev/hidgN. Fatal to transport start.
var ErrPermissionDenied = errors.New("hiderrors: permission denied")

// Transport bring-up errors. Fatal; wrap with the underlying cause.
var (
	ErrRegistrationFailed  = errors.New("hiderrors: gatt application registration failed")
	ErrAdvertisementFailed = errors.New("hiderrors: le advertisement registration failed")
	ErrNoUdcAvailable      = errors.New("hiderrors: no usb device controller available")
	ErrGadgetAlreadyExists = errors.New("hiderrors: usb gadget already exists")
	ErrConfigfsNotMounted  = errors.New("hiderrors: configfs is not mounted")
)

// Transport runtime errors. Move the Dispatcher to Off; the control surface
// is notified and may re-start.
var (
	ErrHostDetached    = errors.New("hiderrors: usb host detached")
	ErrBusDisconnected = errors.New("hiderrors: bluetooth central disconnected")
)

// Input errors. The dispatcher continues in transport-only mode.
var (
	ErrDeviceGone        = errors.New("hiderrors: input device disappeared")
	ErrDeviceUnsupported = errors.New("hiderrors: input device lacks required capabilities")
)

// ErrBadReportID and the other internal-invariant errors are programmer
// errors: something violated a contract this package enforces internally.
// hidstate reports an unknown report ID as hidreport.ErrBadReportID, which
// the dispatcher's transmit loop logs before carrying on; nothing panics on
// them, in any build.
var ErrBadReportID = errors.New("hiderrors: unknown report id")
