// Package dispatchsvc owns the Dispatcher: mode selection, the transmit
// loop, and rate-limited routing of encoded reports to whichever transport
// is active ("HID transports": hogsvc.Server, gadgetsvc.Server), built on
// the same errgroup-supervised Start/Ready shape pkg/agent.Agent.Run uses
// for its own services.
package dispatchsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidreport"
	"github.com/neuroplastio/neio-hogpad/hidapi/hidstate"
	"github.com/neuroplastio/neio-hogpad/internal/hiderrors"
	"github.com/neuroplastio/neio-hogpad/pkg/bus"
)

// Mode names the exclusive transport a Running Dispatcher drives.
type Mode string

const (
	ModeBLE Mode = "ble"
	ModeUSB Mode = "usb"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBLE, ModeUSB:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("dispatchsvc: %w: %q (want ble or usb)", hiderrors.ErrInvalidMode, s)
	}
}

// RunState names the Dispatcher's own lifecycle state, independent of Mode.
type RunState string

const (
	StateOff      RunState = "off"
	StateStarting RunState = "starting"
	StateRunning  RunState = "running"
	StateStopping RunState = "stopping"
)

const (
	MinRateHz = 1
	MaxRateHz = 250
)

// StatusEvent is published on every state transition so a CLI or GUI
// control surface can observe the Dispatcher without polling.
type StatusEvent struct {
	State RunState
	Mode  Mode
	Err   error
}

// Transport is the narrow interface both hogsvc.Server and gadgetsvc.Server
// satisfy. The Dispatcher depends only on this, never on either transport's
// concrete type, breaking the cyclic reference design notes §9 warns about:
// transports hold no back-reference to the Dispatcher, only this push path.
type Transport interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	PushReport(id hidreport.ID, payload []byte) error
}

// stopDeadline bounds how long Stop waits for a transport to tear down
// cleanly before escalating to a forced, logged dirty shutdown.
const stopDeadline = time.Second

// orderedReportIDs lists every report ID in the ascending push order
// required within one tick.
var orderedReportIDs = []hidreport.ID{hidreport.IDGamepad, hidreport.IDKeyboard, hidreport.IDMouse}

// Dispatcher owns the Off/Starting/Running/Stopping state machine and the
// rate-limited transmit loop that reads hidstate.State and pushes dirty
// reports to the active transport.
type Dispatcher struct {
	log   *zap.Logger
	state *hidstate.State
	ble   Transport
	usb   Transport
	rate  int
	evb   *bus.Bus[string, StatusEvent]

	ready chan struct{}

	mu       sync.Mutex
	runState RunState
	mode     Mode
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// New builds a Dispatcher. ble and/or usb may be nil if that transport was
// never constructed (e.g. no BlueZ available on this host); selecting a nil
// transport's mode at Start fails with ErrInvalidMode.
func New(log *zap.Logger, state *hidstate.State, ble, usb Transport, rateHz int) *Dispatcher {
	return &Dispatcher{
		log:      log,
		state:    state,
		ble:      ble,
		usb:      usb,
		rate:     rateHz,
		evb:      bus.NewBus[string, StatusEvent](log.Named("dispatch.bus")),
		runState: StateOff,
		ready:    make(chan struct{}),
	}
}

// Run starts the Dispatcher's internal event bus and blocks until ctx is
// cancelled, at which point it stops any running transport. It belongs in
// an errgroup alongside the other agent services; callers should wait on
// Ready() before calling Start.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.evb.Start(ctx); err != nil {
		return fmt.Errorf("dispatchsvc: start event bus: %w", err)
	}
	close(d.ready)
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopDeadline)
	defer cancel()
	return d.Stop(stopCtx)
}

// Ready closes once the internal event bus has started and Start may be
// called.
func (d *Dispatcher) Ready() <-chan struct{} {
	return d.ready
}

// Status returns a channel of state transitions. The channel closes when
// ctx is cancelled.
func (d *Dispatcher) Status(ctx context.Context) <-chan bus.Message[string, StatusEvent] {
	return d.evb.Subscribe(ctx, "status")
}

func (d *Dispatcher) publish(ctx context.Context, state RunState, mode Mode, err error) {
	d.evb.Publish(ctx, "status", StatusEvent{State: state, Mode: mode, Err: err})
}

// Start brings up the transport for mode and begins the transmit loop. It
// fails if the Dispatcher is not currently Off, or if rate/mode are
// invalid, or if the chosen transport fails to come up (TransportBringUp).
func (d *Dispatcher) Start(ctx context.Context, mode Mode) error {
	d.mu.Lock()
	if d.runState != StateOff {
		d.mu.Unlock()
		return fmt.Errorf("dispatchsvc: start requires state Off, was %s", d.runState)
	}
	if d.rate < MinRateHz || d.rate > MaxRateHz {
		d.mu.Unlock()
		return fmt.Errorf("dispatchsvc: %w: %d hz", hiderrors.ErrInvalidRate, d.rate)
	}
	transport, err := d.transportFor(mode)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.runState = StateStarting
	d.mode = mode
	d.mu.Unlock()
	d.publish(ctx, StateStarting, mode, nil)

	if err := transport.Start(ctx); err != nil {
		d.mu.Lock()
		d.runState = StateOff
		d.mu.Unlock()
		d.publish(ctx, StateOff, mode, err)
		return fmt.Errorf("dispatchsvc: bring up %s transport: %w", mode, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.runState = StateRunning
	d.cancel = cancel
	d.loopDone = make(chan struct{})
	d.mu.Unlock()
	d.publish(ctx, StateRunning, mode, nil)

	go d.transmitLoop(loopCtx, transport, mode)
	return nil
}

func (d *Dispatcher) transportFor(mode Mode) (Transport, error) {
	switch mode {
	case ModeBLE:
		if d.ble == nil {
			return nil, fmt.Errorf("dispatchsvc: %w: ble transport not available", hiderrors.ErrInvalidMode)
		}
		return d.ble, nil
	case ModeUSB:
		if d.usb == nil {
			return nil, fmt.Errorf("dispatchsvc: %w: usb transport not available", hiderrors.ErrInvalidMode)
		}
		return d.usb, nil
	default:
		return nil, fmt.Errorf("dispatchsvc: %w: %q", hiderrors.ErrInvalidMode, mode)
	}
}

// transmitLoop ticks at the configured rate. Each tick it snapshots and
// clears every report in ascending ID order, pushing only the dirty ones
// (the mouse report is always considered dirty when relative motion is
// pending, per hidstate.State.SnapshotAndClearRelative).
func (d *Dispatcher) transmitLoop(ctx context.Context, transport Transport, mode Mode) {
	defer close(d.loopDone)
	ticker := time.NewTicker(time.Second / time.Duration(d.rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range orderedReportIDs {
				payload, dirty, err := d.state.SnapshotAndClearRelative(id)
				if err != nil {
					d.log.Error("dispatch: internal invariant violated", zap.Error(err))
					continue
				}
				if !dirty {
					continue
				}
				if err := transport.PushReport(id, payload); err != nil {
					d.log.Warn("dispatch: transport push failed", zap.Stringer("report", id), zap.Error(err))
					d.faultLocked(mode, err)
					return
				}
			}
		}
	}
}

// faultLocked moves Running -> Off after a transport self-reports a runtime
// fault (HostDetached, BusDisconnected) and surfaces it on the status bus.
func (d *Dispatcher) faultLocked(mode Mode, cause error) {
	d.mu.Lock()
	if d.runState != StateRunning {
		d.mu.Unlock()
		return
	}
	d.runState = StateOff
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.publish(context.Background(), StateOff, mode, cause)
}

// Stop tears down the active transport and returns to Off. It is
// cooperative: pending notifications are flushed and the transport's own
// Stop is awaited up to stopDeadline, after which it gives up and logs a
// dirty shutdown rather than blocking forever.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.runState == StateOff {
		d.mu.Unlock()
		return nil
	}
	mode := d.mode
	transport, _ := d.transportFor(mode)
	cancel := d.cancel
	loopDone := d.loopDone
	d.runState = StateStopping
	d.mu.Unlock()
	d.publish(ctx, StateStopping, mode, nil)

	if cancel != nil {
		cancel()
	}
	if loopDone != nil {
		select {
		case <-loopDone:
		case <-time.After(stopDeadline):
			d.log.Error("dispatch: transmit loop did not exit within deadline", zap.String("mode", string(mode)))
		}
	}

	// Flush: push every report still dirty since the last tick.
	if transport != nil {
		for _, id := range orderedReportIDs {
			payload, dirty, err := d.state.SnapshotAndClearRelative(id)
			if err != nil || !dirty {
				continue
			}
			if err := transport.PushReport(id, payload); err != nil {
				d.log.Warn("dispatch: flush push failed", zap.Stringer("report", id), zap.Error(err))
				break
			}
		}
	}

	var stopErr error
	if transport != nil {
		done := make(chan error, 1)
		go func() { done <- transport.Stop(ctx) }()
		select {
		case stopErr = <-done:
		case <-time.After(stopDeadline):
			d.log.Error("dispatch: dirty shutdown, transport teardown exceeded deadline", zap.String("mode", string(mode)))
			stopErr = fmt.Errorf("dispatchsvc: dirty shutdown: transport teardown timed out")
		}
	}

	d.mu.Lock()
	d.runState = StateOff
	d.mode = ""
	d.mu.Unlock()
	d.publish(ctx, StateOff, mode, stopErr)
	return stopErr
}

// RunState returns the Dispatcher's current lifecycle state and, if
// Running or Starting, the active mode.
func (d *Dispatcher) RunState() (RunState, Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runState, d.mode
}

// Inject* methods form the narrow control interface a GUI or CLI uses to
// feed synthetic events directly into hidstate.State, bypassing the
// physical input source entirely.
func (d *Dispatcher) InjectButton(id int, pressed bool)          { d.state.SetButton(id, pressed) }
func (d *Dispatcher) InjectAxis(axis hidstate.Axis, value int32) { d.state.SetAxis(axis, value) }
func (d *Dispatcher) InjectTrigger(side hidstate.TriggerSide, value int32) {
	d.state.SetTrigger(side, value)
}
func (d *Dispatcher) InjectHat(up, down, left, right bool) { d.state.SetHat(up, down, left, right) }
func (d *Dispatcher) InjectKey(scanCode uint8, pressed bool) {
	if pressed {
		d.state.PressKey(scanCode)
	} else {
		d.state.ReleaseKey(scanCode)
	}
}
func (d *Dispatcher) InjectModifier(mask hidstate.Modifier, on bool) { d.state.SetModifier(mask, on) }
func (d *Dispatcher) InjectMouseMove(dx, dy int32)                   { d.state.MoveMouse(dx, dy) }
func (d *Dispatcher) InjectMouseButton(btn hidstate.MouseButton, pressed bool) {
	d.state.SetMouseButton(btn, pressed)
}
func (d *Dispatcher) InjectWheel(v, h int32) { d.state.Wheel(v, h) }
