package hogsvc

import (
	"github.com/godbus/dbus/v5"
)

// objectManager implements org.freedesktop.DBus.ObjectManager at the
// application root. BlueZ calls GetManagedObjects exactly once, right after
// RegisterApplication, to learn the whole service/characteristic/descriptor
// tree in one round trip; it is never asked to track it live, so a catalog
// built once at registration time and never mutated is sufficient.
type objectManager struct {
	objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
}

func newObjectManager() *objectManager {
	return &objectManager{objects: make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)}
}

func (m *objectManager) addService(path dbus.ObjectPath, uuid string, chars []dbus.ObjectPath) {
	m.objects[path] = map[string]map[string]dbus.Variant{
		ifaceGattService: {
			"UUID":            dbus.MakeVariant(uuid),
			"Primary":         dbus.MakeVariant(true),
			"Characteristics": dbus.MakeVariant(chars),
		},
	}
}

func (m *objectManager) addChar(path, svcPath dbus.ObjectPath, uuid string, flags []string, descs []dbus.ObjectPath) {
	m.objects[path] = map[string]map[string]dbus.Variant{
		ifaceGattChar: {
			"UUID":        dbus.MakeVariant(uuid),
			"Service":     dbus.MakeVariant(svcPath),
			"Flags":       dbus.MakeVariant(flags),
			"Descriptors": dbus.MakeVariant(descs),
		},
	}
}

func (m *objectManager) addDesc(path, charPath dbus.ObjectPath, uuid string, flags []string) {
	m.objects[path] = map[string]map[string]dbus.Variant{
		ifaceGattDesc: {
			"UUID":           dbus.MakeVariant(uuid),
			"Characteristic": dbus.MakeVariant(charPath),
			"Flags":          dbus.MakeVariant(flags),
		},
	}
}

// GetManagedObjects implements org.freedesktop.DBus.ObjectManager.
func (m *objectManager) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	return m.objects, nil
}
