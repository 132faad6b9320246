// Package hogsvc exposes the three HID reports over BLE using the
// HID-over-GATT (HoG) profile, registered with BlueZ over D-Bus: an
// ObjectManager root, numbered service/char/desc objects, and Report
// Reference descriptors, following BlueZ's own GattApplication example
// layout and the SystemBus/Object.Call/Call.Store/AddMatch D-Bus idiom.
package hogsvc

// Bluetooth SIG 16-bit UUIDs, expanded to their full 128-bit base form.
const (
	uuidHIDService        = "00001812-0000-1000-8000-00805f9b34fb"
	uuidHIDInformation     = "00002a4a-0000-1000-8000-00805f9b34fb"
	uuidReportMap          = "00002a4b-0000-1000-8000-00805f9b34fb"
	uuidHIDControlPoint    = "00002a4c-0000-1000-8000-00805f9b34fb"
	uuidReport             = "00002a4d-0000-1000-8000-00805f9b34fb"
	uuidProtocolMode       = "00002a4e-0000-1000-8000-00805f9b34fb"
	uuidReportReference    = "00002908-0000-1000-8000-00805f9b34fb"

	uuidDeviceInfoService  = "0000180a-0000-1000-8000-00805f9b34fb"
	uuidManufacturerName   = "00002a29-0000-1000-8000-00805f9b34fb"
	uuidModelNumber        = "00002a24-0000-1000-8000-00805f9b34fb"
	uuidPnPID              = "00002a50-0000-1000-8000-00805f9b34fb"

	uuidGAPService         = "00001800-0000-1000-8000-00805f9b34fb"
	uuidDeviceName         = "00002a00-0000-1000-8000-00805f9b34fb"
	uuidAppearance         = "00002a01-0000-1000-8000-00805f9b34fb"
)

const (
	ifaceGattService  = "org.bluez.GattService1"
	ifaceGattChar     = "org.bluez.GattCharacteristic1"
	ifaceGattDesc     = "org.bluez.GattDescriptor1"
	ifaceGattManager  = "org.bluez.GattManager1"
	ifaceLEAdvManager = "org.bluez.LEAdvertisingManager1"
	ifaceLEAdv        = "org.bluez.LEAdvertisement1"
	ifaceAdapter      = "org.bluez.Adapter1"
	ifaceObjManager   = "org.freedesktop.DBus.ObjectManager"
	ifaceProperties   = "org.freedesktop.DBus.Properties"

	bluezDest = "org.bluez"
)

// hidInformation is bcdHID=1.11, bCountryCode=0, Flags=RemoteWake|NormallyConnectable.
var hidInformation = []byte{0x11, 0x01, 0x00, 0x03}
