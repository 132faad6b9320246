// Package hidstate holds the mutable, in-memory snapshot of the gamepad,
// keyboard and mouse the input source drives and the dispatcher reads back:
// one mutex-guarded struct with a mutator surface and a diff-and-clear
// read-out, for the three fixed report layouts this module declares.
package hidstate

import (
	"bytes"
	"sync"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidreport"
)

// Axis names the four absolute gamepad stick axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisRx
	AxisRy
)

// TriggerSide names the two analog triggers.
type TriggerSide int

const (
	TriggerL2 TriggerSide = iota
	TriggerR2
)

// MouseButton names the three mouse buttons carried in bits 0/1/2.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Modifier bits, matching HID keyboard usage page 0x07 usages 0xE0-0xE7.
type Modifier uint8

const (
	ModLeftCtrl   Modifier = 1 << 0
	ModLeftShift  Modifier = 1 << 1
	ModLeftAlt    Modifier = 1 << 2
	ModLeftMeta   Modifier = 1 << 3
	ModRightCtrl  Modifier = 1 << 4
	ModRightShift Modifier = 1 << 5
	ModRightAlt   Modifier = 1 << 6
	ModRightMeta  Modifier = 1 << 7
)

// rolloverCode is ErrorRollOver (HID usage 0x01), used to fill every key
// slot when more than six keys are held at once.
const rolloverCode = 0x01

// hat direction table: index is (up<<0 | down<<1 | left<<2 | right<<3),
// value is the hat byte. Opposite directions held together collapse to
// neutral (8), as do the all-clear and all-held combinations.
var hatTable = [16]uint8{
	0b0000: 8, // none
	0b0001: 0, // U
	0b0010: 4, // D
	0b0011: 8, // U+D
	0b0100: 6, // L
	0b0101: 7, // U+L
	0b0110: 5, // D+L
	0b0111: 8, // U+D+L
	0b1000: 2, // R
	0b1001: 1, // U+R
	0b1010: 3, // D+R
	0b1011: 8, // U+D+R
	0b1100: 8, // L+R
	0b1101: 8,
	0b1110: 8,
	0b1111: 8,
}

// State is the thread-safe snapshot of all three virtual devices.
type State struct {
	mu sync.Mutex

	gamepad  hidreport.GamepadReport
	keyboard hidreport.KeyboardReport
	keys     []uint8 // ordered list of currently held scan codes; more than 6 triggers rollover fill

	mouse       hidreport.MouseReport
	mouseDirty  bool

	lastSent map[hidreport.ID][]byte
}

func New() *State {
	s := &State{
		lastSent: make(map[hidreport.ID][]byte, 3),
	}
	s.gamepad.Hat = 8
	return s
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

func clampUint8(v int32) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

func clampInt8(v int32) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}

// SetButton sets or clears one of the 11 gamepad buttons, 1-indexed to
// match the descriptor's UsageMinimum/UsageMaximum declaration.
func (s *State) SetButton(id int, pressed bool) {
	if id < 1 || id > 11 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bit := uint(id - 1)
	byteIdx := bit / 8
	bitIdx := bit % 8
	if pressed {
		s.gamepad.Buttons[byteIdx] |= 1 << bitIdx
	} else {
		s.gamepad.Buttons[byteIdx] &^= 1 << bitIdx
	}
}

// SetAxis sets an absolute gamepad stick axis, clamped to [-32768, 32767].
func (s *State) SetAxis(axis Axis, value int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := clampInt16(value)
	switch axis {
	case AxisX:
		s.gamepad.X = v
	case AxisY:
		s.gamepad.Y = v
	case AxisRx:
		s.gamepad.Rx = v
	case AxisRy:
		s.gamepad.Ry = v
	}
}

// SetTrigger sets an analog trigger, clamped to [0, 255].
func (s *State) SetTrigger(side TriggerSide, value int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := clampUint8(value)
	switch side {
	case TriggerL2:
		s.gamepad.L2 = v
	case TriggerR2:
		s.gamepad.R2 = v
	}
}

// SetHat updates the 8-direction hat switch from the four raw directional
// booleans via the canonical direction table.
func (s *State) SetHat(up, down, left, right bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := 0
	if up {
		idx |= 0b0001
	}
	if down {
		idx |= 0b0010
	}
	if left {
		idx |= 0b0100
	}
	if right {
		idx |= 0b1000
	}
	s.gamepad.Hat = hatTable[idx]
}

// PressKey adds a scan code to the held-key multiset, ignoring duplicates,
// and applies ErrorRollOver filling once more than six keys are held.
func (s *State) PressKey(scanCode uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k == scanCode {
			return
		}
	}
	s.keys = append(s.keys, scanCode)
	s.syncKeySlots()
}

// ReleaseKey removes a scan code from the held-key multiset.
func (s *State) ReleaseKey(scanCode uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, k := range s.keys {
		if k == scanCode {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	s.syncKeySlots()
}

// syncKeySlots recomputes the six report key slots from the held-key
// multiset, applying rollover fill when more than six keys are held.
func (s *State) syncKeySlots() {
	if len(s.keys) > 6 {
		for i := range s.keyboard.Keys {
			s.keyboard.Keys[i] = rolloverCode
		}
		return
	}
	var slots [6]uint8
	copy(slots[:], s.keys)
	s.keyboard.Keys = slots
}

// SetModifier turns one or more modifier bits on or off.
func (s *State) SetModifier(mask Modifier, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.keyboard.Modifier |= uint8(mask)
	} else {
		s.keyboard.Modifier &^= uint8(mask)
	}
}

// MoveMouse accumulates relative motion with saturating add; the result is
// consumed and zeroed by the next SnapshotAndClearRelative(IDMouse) call.
func (s *State) MoveMouse(dx, dy int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mouse.Dx = clampInt16(int32(s.mouse.Dx) + dx)
	s.mouse.Dy = clampInt16(int32(s.mouse.Dy) + dy)
	if dx != 0 || dy != 0 {
		s.mouseDirty = true
	}
}

// SetMouseButton sets or clears one of the three mouse buttons.
func (s *State) SetMouseButton(button MouseButton, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bit := uint8(1) << uint(button)
	if pressed {
		s.mouse.Buttons |= bit
	} else {
		s.mouse.Buttons &^= bit
	}
}

// Wheel accumulates vertical wheel motion. Horizontal wheel motion is
// accepted but not carried on the wire: the 6-byte mouse report this
// module declares has no room for a second wheel axis (see DESIGN.md).
func (s *State) Wheel(v, h int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mouse.Wheel = clampInt8(int32(s.mouse.Wheel) + v)
	if v != 0 {
		s.mouseDirty = true
	}
	_ = h
}

// SnapshotAndClearRelative encodes the named report, zeroing the mouse's
// relative fields if it was the mouse report, and reports whether the bytes
// changed since the last call for this report ID. The mouse report is
// reported dirty whenever relative motion was pending, independent of
// whether the resulting bytes happen to match the previous snapshot, or
// when its button byte changed; its relative fields are not compared, since
// they are zeroed after every read.
func (s *State) SnapshotAndClearRelative(id hidreport.ID) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf []byte
	dirty := false
	switch id {
	case hidreport.IDGamepad:
		buf = s.gamepad.Encode()
	case hidreport.IDKeyboard:
		buf = s.keyboard.Encode()
	case hidreport.IDMouse:
		buf = s.mouse.Encode()
		prev := s.lastSent[id]
		dirty = s.mouseDirty || len(prev) == 0 || prev[0] != buf[0]
		s.mouse.Dx = 0
		s.mouse.Dy = 0
		s.mouse.Wheel = 0
		s.mouseDirty = false
	default:
		return nil, false, hidreport.ErrBadReportID{ID: uint8(id)}
	}

	if id != hidreport.IDMouse {
		dirty = !bytes.Equal(buf, s.lastSent[id])
	}
	s.lastSent[id] = buf
	return buf, dirty, nil
}
