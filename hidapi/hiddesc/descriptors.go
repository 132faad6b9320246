package hiddesc

// Usage page identifiers used by the combined report descriptor.
const (
	UsagePageGenericDesktop uint16 = 0x01
	UsagePageSimulation     uint16 = 0x02
	UsagePageKeyboard       uint16 = 0x07
	UsagePageButton         uint16 = 0x09
)

// Generic Desktop usages.
const (
	UsagePointer   uint16 = 0x01
	UsageMouse     uint16 = 0x02
	UsageGamePad   uint16 = 0x05
	UsageKeyboard  uint16 = 0x06
	UsageX         uint16 = 0x30
	UsageY         uint16 = 0x31
	UsageRx        uint16 = 0x33
	UsageRy        uint16 = 0x34
	UsageWheel     uint16 = 0x38
	UsageHatSwitch uint16 = 0x39
)

// Simulation Controls usages.
const (
	UsageAccelerator uint16 = 0xC4
	UsageBrake       uint16 = 0xC5
)

// Report IDs, in ascending dispatch order.
const (
	ReportIDGamepad  uint8 = 1
	ReportIDKeyboard uint8 = 2
	ReportIDMouse    uint8 = 3
)

func inputItem(di DataItem) MainItem {
	return MainItem{Type: MainItemTypeInput, DataItem: &di}
}

// gamepadCollection builds the 13-byte gamepad report: 11 buttons (2 bytes,
// LSB-first), four signed 16-bit axes, two unsigned 8-bit triggers, and a
// 4-bit null-state hat switch padded out to a full byte.
func gamepadCollection() Collection {
	return Collection{
		Type:      CollectionTypeApplication,
		UsagePage: UsagePageGenericDesktop,
		UsageID:   UsageGamePad,
		Items: []MainItem{
			inputItem(DataItem{
				Flags:        DataFlagVariable,
				UsagePage:    UsagePageButton,
				UsageMinimum: 1,
				UsageMaximum: 11,
				ReportID:     ReportIDGamepad,
				ReportSize:   1,
				ReportCount:  11,
				LogicalMinimum: 0,
				LogicalMaximum: 1,
			}),
			inputItem(DataItem{
				Flags:       DataFlagConstant,
				ReportID:    ReportIDGamepad,
				ReportSize:  1,
				ReportCount: 5,
			}),
			inputItem(DataItem{
				Flags:          DataFlagVariable,
				UsagePage:      UsagePageGenericDesktop,
				UsageIDs:       []uint16{UsageX, UsageY, UsageRx, UsageRy},
				ReportID:       ReportIDGamepad,
				ReportSize:     16,
				ReportCount:    4,
				LogicalMinimum: -32768,
				LogicalMaximum: 32767,
			}),
			inputItem(DataItem{
				Flags:          DataFlagVariable,
				UsagePage:      UsagePageSimulation,
				UsageIDs:       []uint16{UsageBrake, UsageAccelerator},
				ReportID:       ReportIDGamepad,
				ReportSize:     8,
				ReportCount:    2,
				LogicalMinimum: 0,
				LogicalMaximum: 255,
			}),
			inputItem(DataItem{
				Flags:          DataFlagVariable | DataFlagNullState,
				UsagePage:      UsagePageGenericDesktop,
				UsageIDs:       []uint16{UsageHatSwitch},
				ReportID:       ReportIDGamepad,
				ReportSize:     4,
				ReportCount:    1,
				LogicalMinimum: 0,
				LogicalMaximum: 7,
			}),
			inputItem(DataItem{
				Flags:       DataFlagConstant,
				ReportID:    ReportIDGamepad,
				ReportSize:  4,
				ReportCount: 1,
			}),
		},
	}
}

// keyboardCollection builds the 8-byte boot-style keyboard report: a
// modifier bitfield, a reserved byte, and six simultaneous scan codes from
// usage page 0x07.
func keyboardCollection() Collection {
	return Collection{
		Type:      CollectionTypeApplication,
		UsagePage: UsagePageGenericDesktop,
		UsageID:   UsageKeyboard,
		Items: []MainItem{
			inputItem(DataItem{
				Flags:          DataFlagVariable,
				UsagePage:      UsagePageKeyboard,
				UsageMinimum:   0xE0,
				UsageMaximum:   0xE7,
				ReportID:       ReportIDKeyboard,
				ReportSize:     1,
				ReportCount:    8,
				LogicalMinimum: 0,
				LogicalMaximum: 1,
			}),
			inputItem(DataItem{
				Flags:       DataFlagConstant,
				ReportID:    ReportIDKeyboard,
				ReportSize:  8,
				ReportCount: 1,
			}),
			inputItem(DataItem{
				Flags:          0,
				UsagePage:      UsagePageKeyboard,
				UsageMinimum:   0x00,
				UsageMaximum:   0xFF,
				ReportID:       ReportIDKeyboard,
				ReportSize:     8,
				ReportCount:    6,
				LogicalMinimum: 0,
				LogicalMaximum: 255,
			}),
		},
	}
}

// mouseCollection builds the 6-byte mouse report: 3 buttons padded to a
// byte, two signed 16-bit relative axes, and one signed 8-bit wheel.
func mouseCollection() Collection {
	pointer := Collection{
		Type:      CollectionTypePhysical,
		UsagePage: UsagePageGenericDesktop,
		UsageID:   UsagePointer,
		Items: []MainItem{
			inputItem(DataItem{
				Flags:          DataFlagVariable,
				UsagePage:      UsagePageButton,
				UsageMinimum:   1,
				UsageMaximum:   3,
				ReportID:       ReportIDMouse,
				ReportSize:     1,
				ReportCount:    3,
				LogicalMinimum: 0,
				LogicalMaximum: 1,
			}),
			inputItem(DataItem{
				Flags:       DataFlagConstant,
				ReportID:    ReportIDMouse,
				ReportSize:  1,
				ReportCount: 5,
			}),
			inputItem(DataItem{
				Flags:          DataFlagVariable | DataFlagRelative,
				UsagePage:      UsagePageGenericDesktop,
				UsageIDs:       []uint16{UsageX, UsageY},
				ReportID:       ReportIDMouse,
				ReportSize:     16,
				ReportCount:    2,
				LogicalMinimum: -32768,
				LogicalMaximum: 32767,
			}),
			inputItem(DataItem{
				Flags:          DataFlagVariable | DataFlagRelative,
				UsagePage:      UsagePageGenericDesktop,
				UsageIDs:       []uint16{UsageWheel},
				ReportID:       ReportIDMouse,
				ReportSize:     8,
				ReportCount:    1,
				LogicalMinimum: -127,
				LogicalMaximum: 127,
			}),
		},
	}
	return Collection{
		Type:      CollectionTypeApplication,
		UsagePage: UsagePageGenericDesktop,
		UsageID:   UsageMouse,
		Items: []MainItem{
			{Type: MainItemTypeCollection, Collection: &pointer},
		},
	}
}

// Combined returns the one ReportDescriptor carrying all three top-level
// application collections this module exposes, gamepad first, matching the
// ascending report-ID push order the dispatcher uses.
func Combined() ReportDescriptor {
	return ReportDescriptor{
		Collections: []Collection{
			gamepadCollection(),
			keyboardCollection(),
			mouseCollection(),
		},
	}
}
