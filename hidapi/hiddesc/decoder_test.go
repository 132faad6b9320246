package hiddesc

import (
	"bytes"
	"testing"
)

// wantCombinedBytes is the exact byte stream Combined() must encode to: the
// report descriptor this module actually ships to hosts, verified item tag
// by item tag against the encoder's state-machine behaviour (global items
// only re-emitted on change, local items reset every main item).
var wantCombinedBytes = []byte{
	// --- gamepad collection (report id 1) ---
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x05, // Usage (Game Pad)
	0xA1, 0x01, // Collection (Application)
	// 11 buttons
	0x05, 0x09, // Usage Page (Button)
	0x19, 0x01, // Usage Minimum (1)
	0x29, 0x0B, // Usage Maximum (11)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x01, // Logical Maximum (1)
	0x85, 0x01, // Report ID (1)
	0x95, 0x0B, // Report Count (11)
	0x75, 0x01, // Report Size (1)
	0x81, 0x02, // Input (Data,Var,Abs)
	// 5-bit padding
	0x05, 0x00, // Usage Page (0)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x00, // Logical Maximum (0)
	0x95, 0x05, // Report Count (5)
	0x81, 0x01, // Input (Const)
	// X, Y, Rx, Ry
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x30, // Usage (X)
	0x09, 0x31, // Usage (Y)
	0x09, 0x33, // Usage (Rx)
	0x09, 0x34, // Usage (Ry)
	0x16, 0x00, 0x80, // Logical Minimum (-32768)
	0x26, 0xFF, 0x7F, // Logical Maximum (32767)
	0x95, 0x04, // Report Count (4)
	0x75, 0x10, // Report Size (16)
	0x81, 0x02, // Input (Data,Var,Abs)
	// L2, R2 triggers
	0x05, 0x02, // Usage Page (Simulation Controls)
	0x09, 0xC5, // Usage (Brake)
	0x09, 0xC4, // Usage (Accelerator)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0xFF, // Logical Maximum (255)
	0x95, 0x02, // Report Count (2)
	0x75, 0x08, // Report Size (8)
	0x81, 0x02, // Input (Data,Var,Abs)
	// hat switch
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x39, // Usage (Hat Switch)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x07, // Logical Maximum (7)
	0x95, 0x01, // Report Count (1)
	0x75, 0x04, // Report Size (4)
	0x81, 0x42, // Input (Data,Var,Abs,Null)
	// 4-bit padding
	0x05, 0x00, // Usage Page (0)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x00, // Logical Maximum (0)
	0x81, 0x01, // Input (Const)
	0xC0, // End Collection

	// --- keyboard collection (report id 2) ---
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x06, // Usage (Keyboard)
	0xA1, 0x01, // Collection (Application)
	// modifier byte
	0x05, 0x07, // Usage Page (Keyboard/Keypad)
	0x19, 0xE0, // Usage Minimum (0xE0)
	0x29, 0xE7, // Usage Maximum (0xE7)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x01, // Logical Maximum (1)
	0x85, 0x02, // Report ID (2)
	0x95, 0x08, // Report Count (8)
	0x75, 0x01, // Report Size (1)
	0x81, 0x02, // Input (Data,Var,Abs)
	// reserved byte
	0x05, 0x00, // Usage Page (0)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x00, // Logical Maximum (0)
	0x95, 0x01, // Report Count (1)
	0x75, 0x08, // Report Size (8)
	0x81, 0x01, // Input (Const)
	// 6 scan codes
	0x05, 0x07, // Usage Page (Keyboard/Keypad)
	0x19, 0x00, // Usage Minimum (0)
	0x29, 0xFF, // Usage Maximum (255)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0xFF, // Logical Maximum (255)
	0x95, 0x06, // Report Count (6)
	0x81, 0x00, // Input (Data,Array,Abs)
	0xC0, // End Collection

	// --- mouse collection (report id 3) ---
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x02, // Usage (Mouse)
	0xA1, 0x01, // Collection (Application)
	0x09, 0x01, // Usage (Pointer)
	0xA1, 0x00, // Collection (Physical)
	// 3 buttons
	0x05, 0x09, // Usage Page (Button)
	0x19, 0x01, // Usage Minimum (1)
	0x29, 0x03, // Usage Maximum (3)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x01, // Logical Maximum (1)
	0x85, 0x03, // Report ID (3)
	0x95, 0x03, // Report Count (3)
	0x75, 0x01, // Report Size (1)
	0x81, 0x02, // Input (Data,Var,Abs)
	// 5-bit padding
	0x05, 0x00, // Usage Page (0)
	0x15, 0x00, // Logical Minimum (0)
	0x25, 0x00, // Logical Maximum (0)
	0x95, 0x05, // Report Count (5)
	0x81, 0x01, // Input (Const)
	// X, Y relative
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x30, // Usage (X)
	0x09, 0x31, // Usage (Y)
	0x16, 0x00, 0x80, // Logical Minimum (-32768)
	0x26, 0xFF, 0x7F, // Logical Maximum (32767)
	0x95, 0x02, // Report Count (2)
	0x75, 0x10, // Report Size (16)
	0x81, 0x06, // Input (Data,Var,Rel)
	// vertical wheel
	0x09, 0x38, // Usage (Wheel)
	0x15, 0x81, // Logical Minimum (-127)
	0x25, 0x7F, // Logical Maximum (127)
	0x95, 0x01, // Report Count (1)
	0x75, 0x08, // Report Size (8)
	0x81, 0x06, // Input (Data,Var,Rel)
	0xC0, // End Collection (Physical)
	0xC0, // End Collection (Application)
}

// TestCombinedEncodesToGoldenBytes pins Combined()'s encoded form against
// the exact bytes a host's HID parser sees. This is the only path
// production ever exercises: the descriptor is built once and written
// verbatim to the Report Map characteristic and the gadget's report_desc
// file, never decoded back.
func TestCombinedEncodesToGoldenBytes(t *testing.T) {
	desc := Combined()
	buf := &bytes.Buffer{}
	if err := NewDescriptorEncoder(buf, &desc).Encode(); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := buf.Bytes()
	if !bytes.Equal(got, wantCombinedBytes) {
		t.Fatalf("encoded descriptor mismatch:\ngot:  % x\nwant: % x", got, wantCombinedBytes)
	}
}
