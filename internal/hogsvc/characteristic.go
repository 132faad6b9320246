package hogsvc

import (
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"
)

// reportChar backs one "Report" GATT characteristic (char3/char4/char5 under
// service0): readable on demand and notifying while a central has
// subscribed. push consults notifying and emits no signal while no central
// is listening; the cached value is still updated for ReadValue.
type reportChar struct {
	log  *zap.Logger
	conn *dbus.Conn

	path     dbus.ObjectPath
	svcPath  dbus.ObjectPath
	descPath dbus.ObjectPath
	reportID uint8

	props *prop.Properties

	mu        sync.Mutex
	notifying bool
	last      []byte

	onStart func()
	onStop  func()
}

func newReportChar(log *zap.Logger, conn *dbus.Conn, path, svcPath dbus.ObjectPath, reportID uint8, onStart, onStop func()) *reportChar {
	c := &reportChar{
		log: log, conn: conn,
		path: path, svcPath: svcPath, descPath: path + "/desc0",
		reportID: reportID, onStart: onStart, onStop: onStop,
	}
	return c
}

// export registers the characteristic's methods, property table and its
// Report Reference descriptor on conn.
func (c *reportChar) export() error {
	if err := c.conn.Export(c, c.path, ifaceGattChar); err != nil {
		return err
	}
	props := prop.Map{
		ifaceGattChar: {
			"UUID":        {Value: uuidReport, Writable: false, Emit: prop.EmitFalse},
			"Service":     {Value: c.svcPath, Writable: false, Emit: prop.EmitFalse},
			"Flags":       {Value: []string{"read", "notify"}, Writable: false, Emit: prop.EmitFalse},
			"Descriptors": {Value: []dbus.ObjectPath{c.descPath}, Writable: false, Emit: prop.EmitFalse},
			"Notifying":   {Value: false, Writable: false, Emit: prop.EmitTrue},
		},
	}
	p, err := prop.Export(c.conn, c.path, props)
	if err != nil {
		return err
	}
	c.props = p

	reportRef := reportReferenceDescriptor{conn: c.conn, charPath: c.path, value: []byte{c.reportID, 0x01}}
	if err := c.conn.Export(reportRef, c.descPath, ifaceGattDesc); err != nil {
		return err
	}
	descProps := prop.Map{
		ifaceGattDesc: {
			"UUID":           {Value: uuidReportReference, Writable: false, Emit: prop.EmitFalse},
			"Characteristic": {Value: c.path, Writable: false, Emit: prop.EmitFalse},
			"Flags":          {Value: []string{"read"}, Writable: false, Emit: prop.EmitFalse},
		},
	}
	_, err = prop.Export(c.conn, c.descPath, descProps)
	return err
}

// ReadValue implements org.bluez.GattCharacteristic1.ReadValue.
func (c *reportChar) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.last...), nil
}

// StartNotify implements org.bluez.GattCharacteristic1.StartNotify. BlueZ
// calls this once per subscribing central; a second call while already
// notifying is a no-op, matching the IDLE/SUBSCRIBED state machine.
func (c *reportChar) StartNotify() *dbus.Error {
	c.mu.Lock()
	already := c.notifying
	c.notifying = true
	c.mu.Unlock()
	if already {
		return nil
	}
	c.props.SetMust(ifaceGattChar, "Notifying", true)
	c.log.Debug("hog: central subscribed", zap.Uint8("reportID", c.reportID))
	if c.onStart != nil {
		c.onStart()
	}
	return nil
}

// StopNotify implements org.bluez.GattCharacteristic1.StopNotify.
func (c *reportChar) StopNotify() *dbus.Error {
	c.mu.Lock()
	was := c.notifying
	c.notifying = false
	c.mu.Unlock()
	if !was {
		return nil
	}
	c.props.SetMust(ifaceGattChar, "Notifying", false)
	c.log.Debug("hog: central unsubscribed", zap.Uint8("reportID", c.reportID))
	if c.onStop != nil {
		c.onStop()
	}
	return nil
}

// IsNotifying reports whether a central is currently subscribed.
func (c *reportChar) IsNotifying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifying
}

// push updates the cached value and, while notifying, emits a
// PropertiesChanged signal carrying the new report bytes. Server.PushReport
// calls it directly on the caller's goroutine (the dispatcher's transmit
// loop); there is no dedicated D-Bus goroutine or work queue.
func (c *reportChar) push(payload []byte) {
	c.mu.Lock()
	c.last = append([]byte(nil), payload...)
	notifying := c.notifying
	c.mu.Unlock()
	if !notifying {
		return
	}
	c.props.SetMust(ifaceGattChar, "Value", payload)
}

// reportReferenceDescriptor implements org.bluez.GattDescriptor1 for a
// single static Report Reference value {ReportID, ReportType=Input}.
type reportReferenceDescriptor struct {
	conn     *dbus.Conn
	charPath dbus.ObjectPath
	value    []byte
}

func (d reportReferenceDescriptor) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return append([]byte(nil), d.value...), nil
}

// hidControlPoint implements the write-without-response HID Control Point
// characteristic (char2). It accepts the suspend/exit-suspend control byte
// but this module's dispatcher has no use for it, since BLE connection
// suspend state is BlueZ's concern, not ours.
type hidControlPoint struct {
	log *zap.Logger
}

func (h *hidControlPoint) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	h.log.Debug("hog: hid control point write", zap.Binary("value", value))
	return nil
}

// protocolModeChar implements the Protocol Mode characteristic (char6). Only
// Report Protocol (0x01) is supported; a write of Boot Protocol (0x00) is
// accepted and stored, so ReadValue returns it, but it does not change the
// reports sent, since the descriptors this module builds are
// Report-protocol-shaped throughout.
type protocolModeChar struct {
	mu   sync.Mutex
	mode byte
}

func newProtocolModeChar() *protocolModeChar {
	return &protocolModeChar{mode: 0x01}
}

func (p *protocolModeChar) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return []byte{p.mode}, nil
}

func (p *protocolModeChar) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	if len(value) != 1 {
		return dbus.NewError("org.bluez.Error.InvalidValueLength", nil)
	}
	p.mu.Lock()
	p.mode = value[0]
	p.mu.Unlock()
	return nil
}

// staticReadChar implements a read-only characteristic whose value never
// changes after construction (HID Information, Report Map, and every
// Device Information / GAP characteristic this module exposes).
type staticReadChar struct {
	value []byte
}

func (s staticReadChar) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return append([]byte(nil), s.value...), nil
}
