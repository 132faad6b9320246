package dispatchsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidreport"
	"github.com/neuroplastio/neio-hogpad/hidapi/hidstate"
)

// fakeTransport records every pushed report and can be made to fail bring-up
// or a later push, standing in for hogsvc.Server/gadgetsvc.Server in tests.
type fakeTransport struct {
	mu        sync.Mutex
	started   bool
	stopped   bool
	startErr  error
	pushErr   error
	pushed    []hidreport.ID
}

func (f *fakeTransport) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Stop(ctx context.Context) error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) PushReport(id hidreport.ID, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, id)
	return nil
}

func (f *fakeTransport) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed)
}

func newTestDispatcher(t *testing.T, ble, usb Transport, rateHz int) (*Dispatcher, context.Context, context.CancelFunc) {
	t.Helper()
	d := New(zap.NewNop(), hidstate.New(), ble, usb, rateHz)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	select {
	case <-d.Ready():
	case <-time.After(time.Second):
		t.Fatal("dispatcher never became ready")
	}
	return d, ctx, cancel
}

func TestParseMode(t *testing.T) {
	if _, err := ParseMode("ble"); err != nil {
		t.Errorf("ble should parse: %v", err)
	}
	if _, err := ParseMode("usb"); err != nil {
		t.Errorf("usb should parse: %v", err)
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("bogus mode should fail to parse")
	}
}

func TestStartRejectsModeWithNilTransport(t *testing.T) {
	d, ctx, cancel := newTestDispatcher(t, nil, nil, 100)
	defer cancel()
	if err := d.Start(ctx, ModeBLE); err == nil {
		t.Error("starting ble mode with a nil ble transport should fail")
	}
}

func TestStartRejectsRateOutOfRange(t *testing.T) {
	ble := &fakeTransport{}
	d, ctx, cancel := newTestDispatcher(t, ble, nil, 0)
	defer cancel()
	if err := d.Start(ctx, ModeBLE); err == nil {
		t.Error("starting with rate 0 should fail validation")
	}
}

func TestStartBringUpFailurePropagates(t *testing.T) {
	wantErr := context.DeadlineExceeded
	ble := &fakeTransport{startErr: wantErr}
	d, ctx, cancel := newTestDispatcher(t, ble, nil, 100)
	defer cancel()
	if err := d.Start(ctx, ModeBLE); err == nil {
		t.Error("transport Start failure should propagate")
	}
	state, _ := d.RunState()
	if state != StateOff {
		t.Errorf("run state after failed bring-up = %s, want Off", state)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	ble := &fakeTransport{}
	d, ctx, cancel := newTestDispatcher(t, ble, nil, 100)
	defer cancel()

	if err := d.Start(ctx, ModeBLE); err != nil {
		t.Fatalf("Start: %v", err)
	}
	state, mode := d.RunState()
	if state != StateRunning || mode != ModeBLE {
		t.Fatalf("after Start: state=%s mode=%s, want Running/ble", state, mode)
	}

	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	state, _ = d.RunState()
	if state != StateOff {
		t.Fatalf("after Stop: state=%s, want Off", state)
	}
	if !ble.stopped {
		t.Error("transport Stop should have been called")
	}
}

func TestTransmitLoopPushesOnlyDirtyReports(t *testing.T) {
	ble := &fakeTransport{}
	state := hidstate.New()
	d := New(zap.NewNop(), state, ble, nil, 200)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)
	<-d.Ready()

	if err := d.Start(ctx, ModeBLE); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// No input mutation happened, so only the mouse-absence means no
	// further mouse pushes, and the gamepad/keyboard reports are dirty at
	// most once (their first, initial push) before settling.
	time.Sleep(50 * time.Millisecond)
	firstCount := ble.pushCount()

	time.Sleep(50 * time.Millisecond)
	secondCount := ble.pushCount()
	if secondCount != firstCount {
		t.Errorf("push count grew from %d to %d with no new input, reports should stop repeating once clean", firstCount, secondCount)
	}

	d.InjectButton(1, true)
	time.Sleep(50 * time.Millisecond)
	thirdCount := ble.pushCount()
	if thirdCount <= secondCount {
		t.Errorf("push count should grow after a button change, got %d -> %d", secondCount, thirdCount)
	}
}

func TestRepeatedMouseMoveKeepsPushing(t *testing.T) {
	ble := &fakeTransport{}
	state := hidstate.New()
	d := New(zap.NewNop(), state, ble, nil, 200)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)
	<-d.Ready()

	if err := d.Start(ctx, ModeBLE); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.InjectMouseMove(5, 5)
	time.Sleep(30 * time.Millisecond)
	before := ble.pushCount()
	d.InjectMouseMove(5, 5)
	time.Sleep(30 * time.Millisecond)
	after := ble.pushCount()
	if after <= before {
		t.Errorf("repeated relative mouse motion should keep producing pushes, got %d -> %d", before, after)
	}
}
