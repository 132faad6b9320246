package hiddesc

// globalState tracks the HID report descriptor's global item state during
// encoding, so repeated values can be elided.
type globalState struct {
	usagePage       uint16
	logicalMinimum  int32
	logicalMaximum  int32
	physicalMinimum int32
	physicalMaximum int32
	unitExponent    uint32
	unit            uint32
	reportID        uint8
	reportCount     uint32
	reportSize      uint32
}

// localState tracks the HID report descriptor's local item state during
// encoding, so repeated values can be elided.
type localState struct {
	usage             []uint16
	usageMinimum      uint16
	usageMaximum      uint16
	designatorIndex   uint8
	designatorMinimum uint8
	designatorMaximum uint8
}
