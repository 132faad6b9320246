package hiddesc

// Tag identifies a HID report descriptor item. The low two bits select the
// payload size; WithItemSize masks them off with TagPrefix before setting
// the size actually written.
type Tag uint8

// Main items: xxxx 00 xx
// Global items: xxxx 01 xx
// Local items: xxxx 10 xx
const (
	TagInput         Tag = 0x80 // 1000 0001 + DataFlags
	TagOutput        Tag = 0x90 // 1001 0001 + DataFlags
	TagFeature       Tag = 0xB0 // 1011 0001 + DataFlags
	TagCollection    Tag = 0xA0 // 1010 0001 + CollectionType
	TagEndCollection Tag = 0xC0 // 1100 0000

	TagUsagePage       Tag = 0x04 // 0000 01xx + UsagePage
	TagLogicalMinimum  Tag = 0x14 // 0001 01xx + int
	TagLogicalMaximum  Tag = 0x24 // 0010 01xx + int
	TagPhysicalMinimum Tag = 0x34 // 0011 01xx + int
	TagPhysicalMaximum Tag = 0x44 // 0100 01xx + int
	TagUnitExponent    Tag = 0x54 // 0101 01xx + int
	TagUnit            Tag = 0x64 // 0110 01xx + int
	TagReportSize      Tag = 0x74 // 0111 01xx + int
	TagReportID        Tag = 0x84 // 1000 01xx + int
	TagReportCount     Tag = 0x94 // 1001 01xx + int
	TagPush            Tag = 0xA4 // 1010 0100
	TagPop             Tag = 0xB4 // 1011 0100

	TagUsage             Tag = 0x08 // 0000 1001 + UsageID
	TagUsageMinimum      Tag = 0x18 // 0001 10xx + int
	TagUsageMaximum      Tag = 0x28 // 0010 10xx + int
	TagDesignatorIndex   Tag = 0x38 // 0011 10xx + int
	TagDesignatorMinimum Tag = 0x48 // 0100 10xx + int
	TagDesignatorMaximum Tag = 0x58 // 0101 10xx + int
	TagStringIndex       Tag = 0x68 // 0110 10xx + int
	TagStringMinimum     Tag = 0x78 // 0111 10xx + int
	TagStringMaximum     Tag = 0x88 // 1000 10xx + int
	TagDelimiter         Tag = 0xA8 // 1010 1001 + 0/1
)

type TagItemSize uint8

const (
	TagItemSize0 TagItemSize = iota
	TagItemSize8
	TagItemSize16
	TagItemSize32
)

func (t Tag) PayloadSize() TagItemSize {
	return TagItemSize(t & 0x03)
}

// WithItemSize returns the tag byte with its size bits set to size.
func (t Tag) WithItemSize(size TagItemSize) Tag {
	return t.TagPrefix() | Tag(size)
}

type TagItemType uint8

const (
	TagItemTypeMain TagItemType = iota
	TagItemTypeGlobal
	TagItemTypeLocal
)

func (t Tag) ItemType() TagItemType {
	return TagItemType((t & 0x0C) >> 2)
}

func (t Tag) TagPrefix() Tag {
	return t & 0xFC
}
