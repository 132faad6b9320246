package hogsvc

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
)

// newTestReportChar builds a reportChar without calling export(), so no real
// bus connection is required. props stays nil, which is safe as long as the
// characteristic is never put into the notifying state in these tests.
func newTestReportChar() *reportChar {
	return newReportChar(zap.NewNop(), nil, "/test/char", "/test/svc", 0x01, nil, nil)
}

func TestReportCharPushWhileIdleUpdatesLastOnly(t *testing.T) {
	c := newTestReportChar()
	payload := []byte{1, 2, 3}
	c.push(payload)

	if c.IsNotifying() {
		t.Fatal("characteristic should not be notifying before StartNotify")
	}
	got, err := c.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadValue = % x, want % x", got, payload)
	}
}

func TestReportCharPushReturnsCopyNotAlias(t *testing.T) {
	c := newTestReportChar()
	payload := []byte{9, 9}
	c.push(payload)
	payload[0] = 0

	got, _ := c.ReadValue(nil)
	if got[0] != 9 {
		t.Error("ReadValue should reflect the value at push time, not a live alias of the caller's slice")
	}
}

func TestProtocolModeDefaultsToReportProtocol(t *testing.T) {
	p := newProtocolModeChar()
	got, err := p.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if len(got) != 1 || got[0] != 0x01 {
		t.Errorf("default protocol mode = % x, want [0x01]", got)
	}
}

func TestProtocolModeWriteRoundTrip(t *testing.T) {
	p := newProtocolModeChar()
	if err := p.WriteValue([]byte{0x00}, nil); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	got, _ := p.ReadValue(nil)
	if got[0] != 0x00 {
		t.Errorf("mode after write = %#x, want 0x00", got[0])
	}
}

func TestProtocolModeWriteRejectsBadLength(t *testing.T) {
	p := newProtocolModeChar()
	if err := p.WriteValue([]byte{0x00, 0x01}, nil); err == nil {
		t.Error("a two-byte write should be rejected")
	}
	if err := p.WriteValue(nil, nil); err == nil {
		t.Error("an empty write should be rejected")
	}
}

func TestStaticReadCharReturnsCopy(t *testing.T) {
	value := []byte{1, 2, 3}
	s := staticReadChar{value: value}
	got, err := s.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	got[0] = 0xFF
	if value[0] != 1 {
		t.Error("mutating the returned slice should not affect the characteristic's stored value")
	}
}

func TestHIDControlPointWriteAccepted(t *testing.T) {
	h := &hidControlPoint{log: zap.NewNop()}
	if err := h.WriteValue([]byte{0x00}, nil); err != nil {
		t.Errorf("control point write should be accepted, got %v", err)
	}
}
