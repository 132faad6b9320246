package hogsvc

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

// advertisement implements org.bluez.LEAdvertisement1. BlueZ owns its
// lifetime once registered; the only method it calls back is Release, when
// the advertisement is being torn down on its own initiative (e.g. adapter
// power-cycled out from under us).
type advertisement struct {
	released chan struct{}
}

func newAdvertisement() *advertisement {
	return &advertisement{released: make(chan struct{})}
}

// Release implements org.bluez.LEAdvertisement1.Release.
func (a *advertisement) Release() *dbus.Error {
	close(a.released)
	return nil
}

func exportAdvertisement(conn *dbus.Conn, path dbus.ObjectPath, deviceName string, appearance uint16, serviceUUIDs []string) (*advertisement, error) {
	adv := newAdvertisement()
	if err := conn.Export(adv, path, ifaceLEAdv); err != nil {
		return nil, err
	}
	props := prop.Map{
		ifaceLEAdv: {
			"Type":         {Value: "peripheral", Writable: false, Emit: prop.EmitFalse},
			"ServiceUUIDs": {Value: serviceUUIDs, Writable: false, Emit: prop.EmitFalse},
			"LocalName":    {Value: deviceName, Writable: false, Emit: prop.EmitFalse},
			"Appearance":   {Value: appearance, Writable: false, Emit: prop.EmitFalse},
			"Includes":     {Value: []string{"tx-power"}, Writable: false, Emit: prop.EmitFalse},
		},
	}
	if _, err := prop.Export(conn, path, props); err != nil {
		return nil, err
	}
	return adv, nil
}
