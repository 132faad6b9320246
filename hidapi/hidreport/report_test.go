package hidreport

import "testing"

func TestPayloadLen(t *testing.T) {
	cases := []struct {
		id   ID
		want int
	}{
		{IDGamepad, GamepadPayloadLen},
		{IDKeyboard, KeyboardPayloadLen},
		{IDMouse, MousePayloadLen},
	}
	for _, c := range cases {
		got, err := PayloadLen(c.id)
		if err != nil {
			t.Fatalf("PayloadLen(%s): %v", c.id, err)
		}
		if got != c.want {
			t.Errorf("PayloadLen(%s) = %d, want %d", c.id, got, c.want)
		}
	}
	if _, err := PayloadLen(ID(99)); err == nil {
		t.Error("PayloadLen(99) should fail for an unknown report id")
	}
}

func TestGamepadEncodeDecode(t *testing.T) {
	r := GamepadReport{
		Buttons: [2]byte{0x01, 0x02},
		X:       -100, Y: 200,
		Rx: 300, Ry: -400,
		L2: 10, R2: 20,
		Hat: 3,
	}
	b := r.Encode()
	if len(b) != GamepadPayloadLen {
		t.Fatalf("encoded length %d, want %d", len(b), GamepadPayloadLen)
	}
	got, err := DecodeGamepad(b)
	if err != nil {
		t.Fatalf("DecodeGamepad: %v", err)
	}
	if got != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
	}
}

func TestKeyboardEncodeDecode(t *testing.T) {
	r := KeyboardReport{Modifier: 0x11, Keys: [6]uint8{4, 5, 6, 0, 0, 0}}
	b := r.Encode()
	if len(b) != KeyboardPayloadLen {
		t.Fatalf("encoded length %d, want %d", len(b), KeyboardPayloadLen)
	}
	if b[1] != 0 {
		t.Errorf("reserved byte = %d, want 0", b[1])
	}
	got, err := DecodeKeyboard(b)
	if err != nil {
		t.Fatalf("DecodeKeyboard: %v", err)
	}
	if got != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
	}
}

// TestMouseEncodeDecode pins the 6-byte mouse payload shape (no horizontal
// wheel byte): one button byte, two signed 16-bit relative axes, and one
// signed 8-bit vertical wheel delta.
func TestMouseEncodeDecode(t *testing.T) {
	r := MouseReport{Buttons: 0x05, Dx: -30000, Dy: 30000, Wheel: -5}
	b := r.Encode()
	if len(b) != MousePayloadLen {
		t.Fatalf("encoded length %d, want %d", len(b), MousePayloadLen)
	}
	got, err := DecodeMouse(b)
	if err != nil {
		t.Fatalf("DecodeMouse: %v", err)
	}
	if got != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
	}
}

func TestMouseButtonsMasked(t *testing.T) {
	r := MouseReport{Buttons: 0xFF}
	b := r.Encode()
	if b[0] != 0x07 {
		t.Errorf("buttons byte = %#x, want masked to 0x07", b[0])
	}
}

func TestBadReportIDError(t *testing.T) {
	err := ErrBadReportID{ID: 42}
	if err.Error() == "" {
		t.Error("expected a non-empty error message")
	}
}
