package agent

// Config is the agent's live-reloadable YAML configuration, loaded and
// watched by internal/configsvc the same way the teacher watches
// devices.yml/flow.yml. Every control-surface-visible option from spec.md
// §6 has a field here.
type Config struct {
	// Mode selects the active transport: "ble" or "usb".
	Mode string `yaml:"mode"`
	// DeviceName is the LocalName advertised by the BLE transport.
	DeviceName string `yaml:"deviceName"`
	// ReportRateHz is the transmit timer frequency, 1-250.
	ReportRateHz int `yaml:"reportRateHz"`
	// InputDevice is an evdev path, or "auto" to scan for the first
	// gamepad-capable device.
	InputDevice string `yaml:"inputDevice"`
	// StaticAddress optionally programs a static random BLE address before
	// BLE bring-up. Empty leaves the adapter's address untouched.
	StaticAddress string `yaml:"staticAddress"`
	// GadgetName is the configfs gadget directory name used by the USB
	// transport.
	GadgetName string `yaml:"gadgetName"`
	// UDCPath selects the USB Device Controller to bind to, or "auto".
	UDCPath string `yaml:"udcPath"`
	// AdapterPath is the BlueZ adapter D-Bus object path used by the BLE
	// transport.
	AdapterPath string `yaml:"adapterPath"`
	// Appearance is the BLE GAP appearance value advertised alongside the
	// HID service (spec.md §9's open question, resolved as configurable).
	Appearance uint16 `yaml:"appearance"`
	// Verbose enables debug-level logging.
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the configuration a fresh install starts from.
func DefaultConfig() Config {
	return Config{
		Mode:         "ble",
		DeviceName:   "neio-pad",
		ReportRateHz: 100,
		InputDevice:  "auto",
		GadgetName:   "neio0",
		UDCPath:      "auto",
		AdapterPath:  "/org/bluez/hci0",
		Appearance:   0x03C4,
	}
}

// Overrides carries the CLI flag values that, when set, take precedence
// over whatever config.yml says - the Go equivalent of
// original_source/src/hogp/main.py's argparse surface layered on top of
// its config file.
type Overrides struct {
	Mode         *string
	DeviceName   *string
	ReportRateHz *int
	InputDevice  *string
	GadgetName   *string
	Verbose      *bool
}

// Apply mutates cfg in place, field by field, for every override that was
// actually set.
func (o Overrides) Apply(cfg *Config) {
	if o.Mode != nil {
		cfg.Mode = *o.Mode
	}
	if o.DeviceName != nil {
		cfg.DeviceName = *o.DeviceName
	}
	if o.ReportRateHz != nil {
		cfg.ReportRateHz = *o.ReportRateHz
	}
	if o.InputDevice != nil {
		cfg.InputDevice = *o.InputDevice
	}
	if o.GadgetName != nil {
		cfg.GadgetName = *o.GadgetName
	}
	if o.Verbose != nil {
		cfg.Verbose = *o.Verbose
	}
}
