// Package hidreport holds the concrete, byte-aligned report types this
// module transmits: gamepad, keyboard and mouse. Every field here starts
// and ends on a byte boundary, so encoding is plain byte-slice arithmetic
// rather than a bit scanner.
package hidreport

import (
	"encoding/binary"
	"fmt"

	"github.com/neuroplastio/neio-hogpad/hidapi/hiddesc"
)

// ID identifies one of the three report layouts by its HID report ID.
type ID uint8

const (
	IDGamepad  ID = ID(hiddesc.ReportIDGamepad)
	IDKeyboard ID = ID(hiddesc.ReportIDKeyboard)
	IDMouse    ID = ID(hiddesc.ReportIDMouse)
)

func (id ID) String() string {
	switch id {
	case IDGamepad:
		return "gamepad"
	case IDKeyboard:
		return "keyboard"
	case IDMouse:
		return "mouse"
	default:
		return fmt.Sprintf("report(%d)", uint8(id))
	}
}

// ErrBadReportID is returned whenever a caller names a report ID this
// module does not declare in its descriptor.
type ErrBadReportID struct {
	ID uint8
}

func (e ErrBadReportID) Error() string {
	return fmt.Sprintf("hidreport: unknown report id %d", e.ID)
}

// PayloadLen returns the encoded byte length of the report, excluding the
// leading report ID byte the USB transport prepends.
func PayloadLen(id ID) (int, error) {
	switch id {
	case IDGamepad:
		return GamepadPayloadLen, nil
	case IDKeyboard:
		return KeyboardPayloadLen, nil
	case IDMouse:
		return MousePayloadLen, nil
	default:
		return 0, ErrBadReportID{ID: uint8(id)}
	}
}

const (
	GamepadPayloadLen  = 13
	KeyboardPayloadLen = 8
	MousePayloadLen    = 6
)

// GamepadReport is the 13-byte payload of report ID 1: 11 buttons packed
// LSB-first into two bytes, four signed 16-bit axes, two unsigned 8-bit
// triggers, and one hat byte (0-7 direction, 8 = neutral).
type GamepadReport struct {
	Buttons [2]byte
	X, Y    int16
	Rx, Ry  int16
	L2, R2  uint8
	Hat     uint8
}

func (r GamepadReport) Encode() []byte {
	buf := make([]byte, GamepadPayloadLen)
	buf[0] = r.Buttons[0]
	buf[1] = r.Buttons[1]
	binary.LittleEndian.PutUint16(buf[2:4], uint16(r.X))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(r.Y))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(r.Rx))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(r.Ry))
	buf[10] = r.L2
	buf[11] = r.R2
	buf[12] = r.Hat
	return buf
}

func DecodeGamepad(b []byte) (GamepadReport, error) {
	if len(b) != GamepadPayloadLen {
		return GamepadReport{}, fmt.Errorf("hidreport: gamepad payload length %d, want %d", len(b), GamepadPayloadLen)
	}
	return GamepadReport{
		Buttons: [2]byte{b[0], b[1]},
		X:       int16(binary.LittleEndian.Uint16(b[2:4])),
		Y:       int16(binary.LittleEndian.Uint16(b[4:6])),
		Rx:      int16(binary.LittleEndian.Uint16(b[6:8])),
		Ry:      int16(binary.LittleEndian.Uint16(b[8:10])),
		L2:      b[10],
		R2:      b[11],
		Hat:     b[12],
	}, nil
}

// KeyboardReport is the 8-byte boot-protocol payload of report ID 2: a
// modifier bitfield, a reserved zero byte, and six simultaneous scan codes.
type KeyboardReport struct {
	Modifier uint8
	Keys     [6]uint8
}

func (r KeyboardReport) Encode() []byte {
	buf := make([]byte, KeyboardPayloadLen)
	buf[0] = r.Modifier
	buf[1] = 0
	copy(buf[2:8], r.Keys[:])
	return buf
}

func DecodeKeyboard(b []byte) (KeyboardReport, error) {
	if len(b) != KeyboardPayloadLen {
		return KeyboardReport{}, fmt.Errorf("hidreport: keyboard payload length %d, want %d", len(b), KeyboardPayloadLen)
	}
	var r KeyboardReport
	r.Modifier = b[0]
	copy(r.Keys[:], b[2:8])
	return r, nil
}

// MouseReport is the 6-byte payload of report ID 3: a 3-bit button field
// padded to a byte, two signed 16-bit relative axes, and a signed 8-bit
// vertical wheel delta.
type MouseReport struct {
	Buttons uint8
	Dx, Dy  int16
	Wheel   int8
}

func (r MouseReport) Encode() []byte {
	buf := make([]byte, MousePayloadLen)
	buf[0] = r.Buttons & 0x07
	binary.LittleEndian.PutUint16(buf[1:3], uint16(r.Dx))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(r.Dy))
	buf[5] = byte(r.Wheel)
	return buf
}

func DecodeMouse(b []byte) (MouseReport, error) {
	if len(b) != MousePayloadLen {
		return MouseReport{}, fmt.Errorf("hidreport: mouse payload length %d, want %d", len(b), MousePayloadLen)
	}
	return MouseReport{
		Buttons: b[0] & 0x07,
		Dx:      int16(binary.LittleEndian.Uint16(b[1:3])),
		Dy:      int16(binary.LittleEndian.Uint16(b[3:5])),
		Wheel:   int8(b[5]),
	}, nil
}
