// Package gadgetsvc programs a Linux configfs USB gadget exposing a single
// composite HID function carrying this module's three report IDs, and
// writes outgoing reports to it: CreateGadget -> SetAttrs/SetStrs ->
// CreateConfig -> CreateHidFunction -> CreateBinding -> Enable ->
// GetReadWriter, wrapped as an idempotent Start/Stop service around this
// module's fixed three-report descriptor.
package gadgetsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"

	gadget "github.com/openstadia/go-usb-gadget"
	o "github.com/openstadia/go-usb-gadget/option"
	"go.uber.org/zap"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidreport"
	"github.com/neuroplastio/neio-hogpad/internal/hiderrors"
)

// DeviceIdentity is the vendor/product/string identity presented on both
// transports: spec.md §4.5's fixed idVendor/idProduct, the same identity a
// Steam Controller presents, which is what lets a host's existing gamepad
// drivers and overlay recognize this device without extra pairing.
var DeviceIdentity = struct {
	VendorID     uint16
	ProductID    uint16
	BcdDevice    uint16
	Serial       string
	Manufacturer string
	Product      string
}{
	VendorID:     0x28DE,
	ProductID:    0x1205,
	BcdDevice:    0x0100,
	Serial:       "neio-hogpad-0001",
	Manufacturer: "neio",
	Product:      "neio HID Pad",
}

// Server owns the configfs gadget's lifetime and the blocking write path to
// its HID function's character device.
type Server struct {
	log     *zap.Logger
	codec   *hidreport.Codec
	name    string
	udcPath string

	mu      sync.Mutex
	gadget  *gadget.Gadget
	config  *gadget.Config
	hidFn   *gadget.HidFunction
	binding *gadget.Binding
	rw      io.ReadWriter
}

// New builds a Server for the named configfs gadget directory. udcPath
// selects the USB Device Controller to bind to at Start; "auto" picks the
// first one gadget.GetUdcs reports.
func New(log *zap.Logger, codec *hidreport.Codec, name, udcPath string) *Server {
	return &Server{log: log, codec: codec, name: name, udcPath: udcPath}
}

// Start builds and enables the gadget, satisfying the dispatchsvc.Transport
// interface. Teardown always tolerates partial failure; bring-up never
// leaves a half-built gadget behind (see closeLocked in the error path).
func (s *Server) Start(ctx context.Context) error {
	udcPath := s.udcPath
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gadget != nil {
		return fmt.Errorf("gadgetsvc: %w", hiderrors.ErrGadgetAlreadyExists)
	}

	if udcPath == "auto" {
		udcs := gadget.GetUdcs()
		if len(udcs) == 0 {
			return fmt.Errorf("gadgetsvc: %w", hiderrors.ErrNoUdcAvailable)
		}
		udcPath = udcs[0]
	}

	var err error
	defer func() {
		if err != nil {
			s.closeLocked()
		}
	}()

	s.gadget = gadget.CreateGadget(s.name)
	s.gadget.SetAttrs(&gadget.GadgetAttrs{
		BcdUSB:          o.Some[uint16](0x0200),
		BDeviceClass:    o.None[uint8](),
		BDeviceSubClass: o.None[uint8](),
		BDeviceProtocol: o.None[uint8](),
		BMaxPacketSize0: o.None[uint8](),
		IdVendor:        o.Some(DeviceIdentity.VendorID),
		IdProduct:       o.Some(DeviceIdentity.ProductID),
		BcdDevice:       o.Some(DeviceIdentity.BcdDevice),
	})
	s.gadget.SetStrs(&gadget.GadgetStrs{
		SerialNumber: DeviceIdentity.Serial,
		Manufacturer: DeviceIdentity.Manufacturer,
		Product:      DeviceIdentity.Product,
	}, gadget.LangUsEng)

	s.config = gadget.CreateConfig(s.gadget, s.name, 1)
	s.config.SetAttrs(&gadget.ConfigAttrs{
		BmAttributes: o.None[uint8](),
		BMaxPower:    o.Some[uint8](250),
	})
	s.config.SetStrs(&gadget.ConfigStrs{
		Configuration: "HID gamepad+keyboard+mouse",
	}, gadget.LangUsEng)

	s.hidFn = gadget.CreateHidFunction(s.gadget, s.name)

	descBytes, derr := s.codec.DescriptorBytes()
	if derr != nil {
		err = fmt.Errorf("gadgetsvc: encode report descriptor: %w", derr)
		return err
	}
	maxLen, merr := s.codec.MaxReportSize()
	if merr != nil {
		err = fmt.Errorf("gadgetsvc: %w", merr)
		return err
	}
	s.hidFn.SetAttrs(&gadget.HidFunctionAttrs{
		Subclass:     0,
		Protocol:     0,
		ReportLength: uint16(maxLen),
		ReportDesc:   descBytes,
	})

	s.binding = gadget.CreateBinding(s.config, s.hidFn, s.hidFn.Name())

	s.gadget.Enable(udcPath)
	s.rw, err = s.hidFn.GetReadWriter()
	if err != nil {
		err = fmt.Errorf("gadgetsvc: get hidg read writer: %w", err)
		return err
	}
	return nil
}

// Stop tears the gadget down in reverse bring-up order. It is idempotent:
// calling Stop twice, or on a Server that never started, is a no-op. ctx is
// accepted for interface symmetry with hogsvc.Server.Stop; configfs
// teardown is always synchronous and fast enough not to need it.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Server) closeLocked() error {
	if s.gadget != nil {
		s.gadget.Disable()
	}
	if s.binding != nil {
		s.binding.Close()
	}
	if s.hidFn != nil {
		s.hidFn.Close()
	}
	if s.config != nil {
		s.config.Close()
	}
	if s.gadget != nil {
		s.gadget.Close()
	}
	s.gadget, s.config, s.hidFn, s.binding, s.rw = nil, nil, nil, nil, nil
	return nil
}

// PushReport prepends id to payload and writes the result to /dev/hidgN,
// matching the dispatcher's transport-agnostic push signature. The USB
// transport, unlike the GATT one, always carries the report ID as the wire
// header byte.
func (s *Server) PushReport(id hidreport.ID, payload []byte) error {
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, byte(id))
	buf = append(buf, payload...)
	return s.WriteReport(buf)
}

// WriteReport writes one report ID-prefixed payload to /dev/hidgN, writing
// the remainder again after a short write until the whole report is out. A
// write that fails with EPIPE or ESHUTDOWN means the host detached the
// endpoint; that is surfaced as ErrHostDetached rather than retried here,
// matching spec's TransportRuntime handling (the dispatcher decides whether
// to restart).
func (s *Server) WriteReport(payload []byte) error {
	s.mu.Lock()
	rw := s.rw
	s.mu.Unlock()
	if rw == nil {
		return fmt.Errorf("gadgetsvc: write with no active gadget")
	}
	for len(payload) > 0 {
		n, err := rw.Write(payload)
		if err != nil {
			if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ESHUTDOWN) {
				return fmt.Errorf("gadgetsvc: %w", hiderrors.ErrHostDetached)
			}
			return fmt.Errorf("gadgetsvc: write report: %w", err)
		}
		payload = payload[n:]
	}
	return nil
}
