package hidstate

import (
	"testing"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidreport"
)

func TestNewStateHatStartsNeutral(t *testing.T) {
	s := New()
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDGamepad)
	if err != nil {
		t.Fatal(err)
	}
	if buf[12] != 8 {
		t.Errorf("initial hat byte = %d, want 8 (neutral)", buf[12])
	}
}

func TestSetHatOppositeDirectionsNeutral(t *testing.T) {
	s := New()
	s.SetHat(true, true, false, false) // up+down held together
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDGamepad)
	if err != nil {
		t.Fatal(err)
	}
	if buf[12] != 8 {
		t.Errorf("up+down hat byte = %d, want 8 (neutral)", buf[12])
	}
}

func TestSetHatDirections(t *testing.T) {
	cases := []struct {
		up, down, left, right bool
		want                  uint8
	}{
		{up: true, want: 0},
		{right: true, want: 2},
		{down: true, want: 4},
		{left: true, want: 6},
		{up: true, right: true, want: 1},
	}
	for _, c := range cases {
		s := New()
		s.SetHat(c.up, c.down, c.left, c.right)
		buf, _, err := s.SnapshotAndClearRelative(hidreport.IDGamepad)
		if err != nil {
			t.Fatal(err)
		}
		if buf[12] != c.want {
			t.Errorf("SetHat(%v,%v,%v,%v) hat byte = %d, want %d", c.up, c.down, c.left, c.right, buf[12], c.want)
		}
	}
}

func TestSetButtonOutOfRangeIgnored(t *testing.T) {
	s := New()
	s.SetButton(0, true)
	s.SetButton(12, true)
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDGamepad)
	if err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0 || buf[1] != 0 {
		t.Errorf("out-of-range button indices mutated the buttons bytes: % x", buf[:2])
	}
}

func TestSetAxisClamping(t *testing.T) {
	s := New()
	s.SetAxis(AxisX, 1_000_000)
	s.SetAxis(AxisY, -1_000_000)
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDGamepad)
	if err != nil {
		t.Fatal(err)
	}
	x, err := hidreport.DecodeGamepad(buf)
	if err != nil {
		t.Fatal(err)
	}
	if x.X != 32767 {
		t.Errorf("X clamp = %d, want 32767", x.X)
	}
	if x.Y != -32768 {
		t.Errorf("Y clamp = %d, want -32768", x.Y)
	}
}

func TestGamepadDirtyOnlyWhenChanged(t *testing.T) {
	s := New()
	_, dirty, err := s.SnapshotAndClearRelative(hidreport.IDGamepad)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("the first snapshot should be dirty since there is no prior sent state to compare against")
	}
	_, dirty, err = s.SnapshotAndClearRelative(hidreport.IDGamepad)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Error("unchanged gamepad report should not be reported dirty on a repeat read")
	}
	s.SetButton(1, true)
	_, dirty, err = s.SnapshotAndClearRelative(hidreport.IDGamepad)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("gamepad report should be dirty after a button change")
	}
}

func TestKeyboardRolloverFillsAllSlots(t *testing.T) {
	s := New()
	for i := uint8(1); i <= 7; i++ {
		s.PressKey(i)
	}
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDKeyboard)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := hidreport.DecodeKeyboard(buf)
	if err != nil {
		t.Fatal(err)
	}
	for i, k := range kb.Keys {
		if k != 0x01 {
			t.Errorf("key slot %d = %#x, want rollover code 0x01 with 7 keys held", i, k)
		}
	}
}

func TestKeyboardWithinLimitReportsActualKeys(t *testing.T) {
	s := New()
	s.PressKey(4)
	s.PressKey(5)
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDKeyboard)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := hidreport.DecodeKeyboard(buf)
	if err != nil {
		t.Fatal(err)
	}
	if kb.Keys[0] != 4 || kb.Keys[1] != 5 {
		t.Errorf("key slots = %v, want [4 5 0 0 0 0]", kb.Keys)
	}
}

func TestReleaseKeyRemovesFromRollover(t *testing.T) {
	s := New()
	for i := uint8(1); i <= 7; i++ {
		s.PressKey(i)
	}
	s.ReleaseKey(1)
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDKeyboard)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := hidreport.DecodeKeyboard(buf)
	if err != nil {
		t.Fatal(err)
	}
	if kb.Keys[0] == 0x01 && kb.Keys[1] == 0x01 {
		t.Error("releasing a key back down to six held keys should clear the rollover fill")
	}
}

func TestMouseSnapshotClearsRelativeMotion(t *testing.T) {
	s := New()
	s.MoveMouse(10, -10)
	buf, dirty, err := s.SnapshotAndClearRelative(hidreport.IDMouse)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("mouse report should be dirty after MoveMouse")
	}
	m, err := hidreport.DecodeMouse(buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.Dx != 10 || m.Dy != -10 {
		t.Errorf("Dx/Dy = %d/%d, want 10/-10", m.Dx, m.Dy)
	}

	_, dirty, err = s.SnapshotAndClearRelative(hidreport.IDMouse)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Error("mouse report should not be dirty on the next tick with no new motion")
	}
}

func TestMouseButtonsPersistAcrossSnapshots(t *testing.T) {
	s := New()
	s.SetMouseButton(MouseButtonLeft, true)
	buf1, _, err := s.SnapshotAndClearRelative(hidreport.IDMouse)
	if err != nil {
		t.Fatal(err)
	}
	buf2, _, err := s.SnapshotAndClearRelative(hidreport.IDMouse)
	if err != nil {
		t.Fatal(err)
	}
	if buf1[0] != buf2[0] || buf1[0]&0x01 == 0 {
		t.Errorf("left button bit should persist across snapshots, got % x then % x", buf1, buf2)
	}
}

func TestWheelDiscardsHorizontalComponent(t *testing.T) {
	s := New()
	s.Wheel(3, 7)
	buf, _, err := s.SnapshotAndClearRelative(hidreport.IDMouse)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != hidreport.MousePayloadLen {
		t.Fatalf("mouse payload length %d, want %d", len(buf), hidreport.MousePayloadLen)
	}
	m, err := hidreport.DecodeMouse(buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.Wheel != 3 {
		t.Errorf("vertical wheel = %d, want 3", m.Wheel)
	}

	buf2, _, err := s.SnapshotAndClearRelative(hidreport.IDMouse)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := hidreport.DecodeMouse(buf2)
	if err != nil {
		t.Fatal(err)
	}
	if m2.Wheel != 0 {
		t.Errorf("wheel after second snapshot = %d, want 0 (not re-sent)", m2.Wheel)
	}
}

func TestSnapshotBadReportID(t *testing.T) {
	s := New()
	if _, _, err := s.SnapshotAndClearRelative(hidreport.ID(99)); err == nil {
		t.Error("expected an error for an unknown report id")
	}
}
