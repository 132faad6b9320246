package hogsvc

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidreport"
	"github.com/neuroplastio/neio-hogpad/internal/gadgetsvc"
	"github.com/neuroplastio/neio-hogpad/internal/hiderrors"
)

// Config holds the bring-up options the control surface exposes for the BLE
// transport: device name, static address, and a configurable GAP
// Appearance value.
type Config struct {
	AdapterPath   dbus.ObjectPath
	DeviceName    string
	Appearance    uint16
	StaticAddress string
}

const defaultAdapterPath = dbus.ObjectPath("/org/bluez/hci0")

// registerTimeout bounds how long a RegisterApplication/RegisterAdvertisement
// call is allowed to block. BlueZ registration routinely takes longer than
// an ordinary D-Bus method call; this is a deliberate, generous bound
// rather than failing bring-up on a slow adapter.
const registerTimeout = 5 * time.Second

const appRootPath = dbus.ObjectPath("/org/neio/hogpad")

// Server exports the HID-over-GATT object tree on the system bus and
// delivers input reports to a subscribed central via characteristic
// notifications. It owns the bus connection exclusively for the lifetime of
// the Running state.
type Server struct {
	log   *zap.Logger
	codec *hidreport.Codec
	cfg   Config

	mu   sync.Mutex
	conn *dbus.Conn
	adv  *advertisement
	regd bool

	chars map[hidreport.ID]*reportChar
}

func New(log *zap.Logger, codec *hidreport.Codec, cfg Config) *Server {
	if cfg.AdapterPath == "" {
		cfg.AdapterPath = defaultAdapterPath
	}
	if cfg.Appearance == 0 {
		cfg.Appearance = 0x03C4 // gamepad
	}
	return &Server{log: log, codec: codec, cfg: cfg}
}

// Start connects to the system bus, exports the full GATT application tree
// plus the Device Information and GAP services, and registers both the
// application and the LE advertisement with BlueZ.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("hogsvc: already started")
	}

	if s.cfg.StaticAddress != "" {
		if err := s.setStaticAddressLocked(s.cfg.StaticAddress); err != nil {
			return fmt.Errorf("hogsvc: program static address: %w", err)
		}
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("hogsvc: %w: %v", hiderrors.ErrPermissionDenied, err)
	}
	s.conn = conn

	descBytes, err := s.codec.DescriptorBytes()
	if err != nil {
		s.closeConnLocked()
		return fmt.Errorf("hogsvc: encode report descriptor: %w", err)
	}

	om := newObjectManager()
	if err := conn.Export(om, appRootPath, ifaceObjManager); err != nil {
		s.closeConnLocked()
		return fmt.Errorf("hogsvc: export object manager: %w", err)
	}

	if err := s.exportHID(om, descBytes); err != nil {
		s.closeConnLocked()
		return fmt.Errorf("hogsvc: export hid service: %w", err)
	}
	s.exportDeviceInfo(om)
	s.exportGAP(om)

	adv, err := exportAdvertisement(conn, appRootPath+"/adv0", s.cfg.DeviceName, s.cfg.Appearance, []string{uuidHIDService})
	if err != nil {
		s.closeConnLocked()
		return fmt.Errorf("hogsvc: export advertisement: %w", err)
	}
	s.adv = adv

	regCtx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()
	adapter := conn.Object(bluezDest, s.cfg.AdapterPath)
	if call := adapter.CallWithContext(regCtx, ifaceGattManager+".RegisterApplication", 0, appRootPath, map[string]dbus.Variant{}); call.Err != nil {
		s.closeConnLocked()
		return fmt.Errorf("hogsvc: %w: %v", hiderrors.ErrRegistrationFailed, call.Err)
	}
	s.regd = true

	advCtx, cancel2 := context.WithTimeout(ctx, registerTimeout)
	defer cancel2()
	if call := adapter.CallWithContext(advCtx, ifaceLEAdvManager+".RegisterAdvertisement", 0, appRootPath+"/adv0", map[string]dbus.Variant{}); call.Err != nil {
		// Advertisement failure is logged and bring-up continues, so a
		// central that is already bonded can still reconnect. No distinction
		// is made for a fresh bring-up: Start never returns
		// ErrAdvertisementFailed.
		s.log.Warn("hog: advertisement registration failed", zap.Error(call.Err))
	}

	s.log.Info("hog: gatt application registered", zap.String("device", s.cfg.DeviceName))
	return nil
}

func (s *Server) exportHID(om *objectManager, descBytes []byte) error {
	conn := s.conn
	svcPath := appRootPath + "/service0"

	charPaths := []dbus.ObjectPath{
		svcPath + "/char0", svcPath + "/char1", svcPath + "/char2",
		svcPath + "/char3", svcPath + "/char4", svcPath + "/char5", svcPath + "/char6",
	}
	om.addService(svcPath, uuidHIDService, charPaths)

	if err := s.exportStaticChar(om, charPaths[0], svcPath, uuidHIDInformation, []string{"read"}, hidInformation, nil); err != nil {
		return err
	}
	if err := s.exportStaticChar(om, charPaths[1], svcPath, uuidReportMap, []string{"read"}, descBytes, nil); err != nil {
		return err
	}
	cp := &hidControlPoint{log: s.log}
	if err := conn.Export(cp, charPaths[2], ifaceGattChar); err != nil {
		return err
	}
	if _, err := exportCharProps(conn, charPaths[2], uuidHIDControlPoint, svcPath, []string{"write-without-response"}, nil); err != nil {
		return err
	}
	om.addChar(charPaths[2], svcPath, uuidHIDControlPoint, []string{"write-without-response"}, nil)

	s.chars = make(map[hidreport.ID]*reportChar, 3)
	reportIDs := []hidreport.ID{hidreport.IDGamepad, hidreport.IDKeyboard, hidreport.IDMouse}
	for i, id := range reportIDs {
		path := charPaths[3+i]
		rc := newReportChar(s.log, conn, path, svcPath, uint8(id), nil, nil)
		if err := rc.export(); err != nil {
			return err
		}
		s.chars[id] = rc
		om.addChar(path, svcPath, uuidReport, []string{"read", "notify"}, []dbus.ObjectPath{path + "/desc0"})
		om.addDesc(path+"/desc0", path, uuidReportReference, []string{"read"})
	}

	pm := newProtocolModeChar()
	if err := conn.Export(pm, charPaths[6], ifaceGattChar); err != nil {
		return err
	}
	if _, err := exportCharProps(conn, charPaths[6], uuidProtocolMode, svcPath, []string{"read", "write-without-response"}, []byte{0x01}); err != nil {
		return err
	}
	om.addChar(charPaths[6], svcPath, uuidProtocolMode, []string{"read", "write-without-response"}, nil)
	return nil
}

func (s *Server) exportStaticChar(om *objectManager, path, svcPath dbus.ObjectPath, uuid string, flags []string, value []byte, descs []dbus.ObjectPath) error {
	if err := s.conn.Export(staticReadChar{value: value}, path, ifaceGattChar); err != nil {
		return err
	}
	if _, err := exportCharProps(s.conn, path, uuid, svcPath, flags, value); err != nil {
		return err
	}
	return nil
}

func exportCharProps(conn *dbus.Conn, path dbus.ObjectPath, uuid string, svcPath dbus.ObjectPath, flags []string, value []byte) (*prop.Properties, error) {
	table := prop.Map{
		ifaceGattChar: {
			"UUID":    {Value: uuid, Writable: false, Emit: prop.EmitFalse},
			"Service": {Value: svcPath, Writable: false, Emit: prop.EmitFalse},
			"Flags":   {Value: flags, Writable: false, Emit: prop.EmitFalse},
		},
	}
	if value != nil {
		table[ifaceGattChar]["Value"] = prop.Prop{Value: value, Writable: false, Emit: prop.EmitFalse}
	}
	return prop.Export(conn, path, table)
}

// exportDeviceInfo exposes the Device Information Service (0x180A):
// Manufacturer Name, Model Number and PnP ID, alongside the HID service,
// so hosts can identify the peripheral during pairing.
func (s *Server) exportDeviceInfo(om *objectManager) {
	svcPath := appRootPath + "/service1"
	charPaths := []dbus.ObjectPath{svcPath + "/char0", svcPath + "/char1", svcPath + "/char2"}
	om.addService(svcPath, uuidDeviceInfoService, charPaths)

	pnp := []byte{0x02, byte(gadgetsvc.DeviceIdentity.VendorID), byte(gadgetsvc.DeviceIdentity.VendorID >> 8),
		byte(gadgetsvc.DeviceIdentity.ProductID), byte(gadgetsvc.DeviceIdentity.ProductID >> 8),
		byte(gadgetsvc.DeviceIdentity.BcdDevice), byte(gadgetsvc.DeviceIdentity.BcdDevice >> 8)}

	values := []struct {
		path  dbus.ObjectPath
		uuid  string
		value []byte
	}{
		{charPaths[0], uuidManufacturerName, []byte(gadgetsvc.DeviceIdentity.Manufacturer)},
		{charPaths[1], uuidModelNumber, []byte(gadgetsvc.DeviceIdentity.Product)},
		{charPaths[2], uuidPnPID, pnp},
	}
	for _, v := range values {
		_ = s.conn.Export(staticReadChar{value: v.value}, v.path, ifaceGattChar)
		_, _ = exportCharProps(s.conn, v.path, v.uuid, svcPath, []string{"read"}, v.value)
		om.addChar(v.path, svcPath, v.uuid, []string{"read"}, nil)
	}
}

// exportGAP exposes the Generic Access service (0x1800) with the device
// name and appearance, matching the advertised values.
func (s *Server) exportGAP(om *objectManager) {
	svcPath := appRootPath + "/service2"
	charPaths := []dbus.ObjectPath{svcPath + "/char0", svcPath + "/char1"}
	om.addService(svcPath, uuidGAPService, charPaths)

	appearance := []byte{byte(s.cfg.Appearance), byte(s.cfg.Appearance >> 8)}
	_ = s.conn.Export(staticReadChar{value: []byte(s.cfg.DeviceName)}, charPaths[0], ifaceGattChar)
	_, _ = exportCharProps(s.conn, charPaths[0], uuidDeviceName, svcPath, []string{"read"}, []byte(s.cfg.DeviceName))
	om.addChar(charPaths[0], svcPath, uuidDeviceName, []string{"read"}, nil)

	_ = s.conn.Export(staticReadChar{value: appearance}, charPaths[1], ifaceGattChar)
	_, _ = exportCharProps(s.conn, charPaths[1], uuidAppearance, svcPath, []string{"read"}, appearance)
	om.addChar(charPaths[1], svcPath, uuidAppearance, []string{"read"}, nil)
}

// PushReport delivers payload (without a leading report-ID byte) to the
// Report characteristic for id. Calling it while no central has subscribed
// is a silent no-op, per the characteristic's IDLE/SUBSCRIBED state
// machine.
func (s *Server) PushReport(id hidreport.ID, payload []byte) error {
	s.mu.Lock()
	rc := s.chars[id]
	s.mu.Unlock()
	if rc == nil {
		return hidreport.ErrBadReportID{ID: uint8(id)}
	}
	rc.push(payload)
	return nil
}

// Stop unregisters the application and advertisement and releases the bus
// connection. It tolerates a Server that never fully started.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	adapter := s.conn.Object(bluezDest, s.cfg.AdapterPath)
	if s.regd {
		unregCtx, cancel := context.WithTimeout(ctx, registerTimeout)
		if call := adapter.CallWithContext(unregCtx, ifaceGattManager+".UnregisterApplication", 0, appRootPath); call.Err != nil {
			s.log.Warn("hog: unregister application failed", zap.Error(call.Err))
		}
		if call := adapter.CallWithContext(unregCtx, ifaceLEAdvManager+".UnregisterAdvertisement", 0, appRootPath+"/adv0"); call.Err != nil {
			s.log.Warn("hog: unregister advertisement failed", zap.Error(call.Err))
		}
		cancel()
		s.regd = false
	}
	s.closeConnLocked()
	return nil
}

func (s *Server) closeConnLocked() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.adv = nil
	s.chars = nil
}

// validateStaticAddress checks mac is a well-formed XX:XX:XX:XX:XX:XX
// address with the top two bits of the most significant byte set to 11,
// i.e. its first hex digit is one of C, D, E, F, as required of a static
// random BLE address.
func validateStaticAddress(mac string) error {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return fmt.Errorf("hogsvc: %w: %q (want XX:XX:XX:XX:XX:XX)", hiderrors.ErrInvalidAddress, mac)
	}
	for _, p := range parts {
		if len(p) != 2 {
			return fmt.Errorf("hogsvc: %w: %q", hiderrors.ErrInvalidAddress, mac)
		}
		if _, err := strconv.ParseUint(p, 16, 8); err != nil {
			return fmt.Errorf("hogsvc: %w: %q", hiderrors.ErrInvalidAddress, mac)
		}
	}
	top, _ := strconv.ParseUint(parts[0], 16, 8)
	if top&0xC0 != 0xC0 {
		return fmt.Errorf("hogsvc: %w: %q (top two bits of first byte must be 11)", hiderrors.ErrInvalidAddress, mac)
	}
	return nil
}

// setStaticAddressLocked programs a static random BLE address by invoking
// btmgmt in the power-off / set-address / power-on sequence. It is a thin
// exec wrapper: the kernel/BlueZ stack has no D-Bus method for this, only
// the management socket the btmgmt tool speaks.
func (s *Server) setStaticAddressLocked(mac string) error {
	if err := validateStaticAddress(mac); err != nil {
		return err
	}
	hciIndex := "0"
	steps := [][]string{
		{"power", "off", hciIndex},
		{"static-addr", mac, hciIndex},
		{"power", "on", hciIndex},
	}
	for _, args := range steps {
		cmd := exec.Command("btmgmt", args...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("btmgmt %v: %w (%s)", args, err, out)
		}
	}
	return nil
}
