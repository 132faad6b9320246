// Package inputsvc reads a single kernel event device and turns its events
// into hidstate mutations, through an Attach/Detach lifecycle built on
// evdev's AbsoluteType/KeyType button and axis constants.
package inputsvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kenshaw/evdev"
	"go.uber.org/zap"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidstate"
	"github.com/neuroplastio/neio-hogpad/internal/hiderrors"
	"github.com/neuroplastio/neio-hogpad/pkg/axisrange"
)

// Linux kernel BTN_SOUTH/EAST/NORTH/WEST and BTN_DPAD_* codes, given as
// aliases in input-event-codes.h but not named individually by the evdev
// package: BTN_SOUTH==BTN_A, BTN_EAST==BTN_B, BTN_NORTH==BTN_X,
// BTN_WEST==BTN_Y.
const (
	btnSouth     = evdev.BtnA
	btnEast      = evdev.BtnB
	btnNorth     = evdev.BtnX
	btnWest      = evdev.BtnY
	btnDpadUp    = evdev.KeyType(0x220)
	btnDpadDown  = evdev.KeyType(0x221)
	btnDpadLeft  = evdev.KeyType(0x222)
	btnDpadRight = evdev.KeyType(0x223)
)

// gamepad button lookup table: physical evdev key code -> virtual button
// index (1-11, matching the descriptor's Button usage range).
var buttonTable = map[evdev.KeyType]int{
	btnSouth:        1,
	btnEast:         2,
	btnWest:         3,
	btnNorth:        4,
	evdev.BtnTL:     5,
	evdev.BtnTR:     6,
	evdev.BtnSelect: 7,
	evdev.BtnStart:  8,
	evdev.BtnThumbL: 9,
	evdev.BtnThumbR: 10,
	evdev.BtnMode:   11,
}

// dpadButtonTable maps discrete D-pad buttons, for devices that expose the
// hat as buttons instead of ABS_HAT0X/Y.
var dpadButtonTable = map[evdev.KeyType]string{
	btnDpadUp:    "up",
	btnDpadDown:  "down",
	btnDpadLeft:  "left",
	btnDpadRight: "right",
}

const (
	axisLogicalMin = -32768
	axisLogicalMax = 32767
	trigLogicalMin = 0
	trigLogicalMax = 255
)

// Handle identifies one attached device.
type Handle struct {
	path string
	dev  *evdev.Evdev
	stop context.CancelFunc
	done chan struct{}
}

// Adapter attaches at most one physical gamepad-capable device at a time
// and streams its events into the shared hidstate.State.
type Adapter struct {
	log   *zap.Logger
	state *hidstate.State

	mu     sync.Mutex
	handle *Handle
}

func New(log *zap.Logger, state *hidstate.State) *Adapter {
	return &Adapter{log: log, state: state}
}

// Attach opens path (or scans /dev/input/event* for the first
// gamepad-capable device when path is "auto") and starts translating its
// events until the context is cancelled or the device disappears.
func (a *Adapter) Attach(ctx context.Context, path string) (*Handle, error) {
	resolved := path
	if path == "auto" {
		found, err := scanForGamepad()
		if err != nil {
			return nil, err
		}
		resolved = found
	}

	dev, err := evdev.OpenFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("inputsvc: open %s: %w", resolved, err)
	}
	if !hasGamepadCapabilities(dev) {
		dev.Close()
		return nil, fmt.Errorf("inputsvc: %s: %w", resolved, hiderrors.ErrDeviceUnsupported)
	}

	hctx, cancel := context.WithCancel(ctx)
	h := &Handle{path: resolved, dev: dev, stop: cancel, done: make(chan struct{})}

	a.mu.Lock()
	if a.handle != nil {
		a.mu.Unlock()
		cancel()
		dev.Close()
		return nil, fmt.Errorf("inputsvc: a device is already attached")
	}
	a.handle = h
	a.mu.Unlock()

	go a.run(hctx, h)
	return h, nil
}

// Detach stops the read loop and closes the device.
func (a *Adapter) Detach(h *Handle) {
	h.stop()
	<-h.done
	a.mu.Lock()
	if a.handle == h {
		a.handle = nil
	}
	a.mu.Unlock()
}

func (a *Adapter) run(ctx context.Context, h *Handle) {
	defer close(h.done)
	defer h.dev.Close()

	absMin := map[evdev.AbsoluteType]int32{}
	absMax := map[evdev.AbsoluteType]int32{}
	for code, info := range h.dev.AbsoluteTypes() {
		absMin[code] = info.Min
		absMax[code] = info.Max
	}

	var hatUp, hatDown, hatLeft, hatRight bool
	updateHat := func() {
		a.state.SetHat(hatUp, hatDown, hatLeft, hatRight)
	}

	events := h.dev.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				a.log.Info("input device gone", zap.String("path", h.path), zap.Error(hiderrors.ErrDeviceGone))
				return
			}
			a.handleEvent(ev, absMin, absMax, &hatUp, &hatDown, &hatLeft, &hatRight, updateHat)
		}
	}
}

func (a *Adapter) handleEvent(
	ev *evdev.EventEnvelope,
	absMin, absMax map[evdev.AbsoluteType]int32,
	hatUp, hatDown, hatLeft, hatRight *bool,
	updateHat func(),
) {
	switch ev.Event.Type {
	case evdev.EventKey:
		code := evdev.KeyType(ev.Code)
		pressed := ev.Value != 0
		if id, ok := buttonTable[code]; ok {
			a.state.SetButton(id, pressed)
			return
		}
		if dir, ok := dpadButtonTable[code]; ok {
			switch dir {
			case "up":
				*hatUp = pressed
			case "down":
				*hatDown = pressed
			case "left":
				*hatLeft = pressed
			case "right":
				*hatRight = pressed
			}
			updateHat()
		}
	case evdev.EventAbsolute:
		code := evdev.AbsoluteType(ev.Code)
		switch code {
		case evdev.AbsoluteX:
			a.state.SetAxis(hidstate.AxisX, axisrange.Rescale(ev.Value, absMin[code], absMax[code], axisLogicalMin, axisLogicalMax))
		case evdev.AbsoluteY:
			a.state.SetAxis(hidstate.AxisY, axisrange.Rescale(ev.Value, absMin[code], absMax[code], axisLogicalMin, axisLogicalMax))
		case evdev.AbsoluteRX:
			a.state.SetAxis(hidstate.AxisRx, axisrange.Rescale(ev.Value, absMin[code], absMax[code], axisLogicalMin, axisLogicalMax))
		case evdev.AbsoluteRY:
			a.state.SetAxis(hidstate.AxisRy, axisrange.Rescale(ev.Value, absMin[code], absMax[code], axisLogicalMin, axisLogicalMax))
		case evdev.AbsoluteZ:
			a.state.SetTrigger(hidstate.TriggerL2, axisrange.Rescale(ev.Value, absMin[code], absMax[code], trigLogicalMin, trigLogicalMax))
		case evdev.AbsoluteRZ:
			a.state.SetTrigger(hidstate.TriggerR2, axisrange.Rescale(ev.Value, absMin[code], absMax[code], trigLogicalMin, trigLogicalMax))
		case evdev.AbsoluteHat2Y:
			a.state.SetTrigger(hidstate.TriggerL2, axisrange.Rescale(ev.Value, absMin[code], absMax[code], trigLogicalMin, trigLogicalMax))
		case evdev.AbsoluteHat2X:
			a.state.SetTrigger(hidstate.TriggerR2, axisrange.Rescale(ev.Value, absMin[code], absMax[code], trigLogicalMin, trigLogicalMax))
		case evdev.AbsoluteHat0X:
			*hatLeft = ev.Value < 0
			*hatRight = ev.Value > 0
			updateHat()
		case evdev.AbsoluteHat0Y:
			*hatUp = ev.Value < 0
			*hatDown = ev.Value > 0
			updateHat()
		}
	}
}

func hasGamepadCapabilities(dev *evdev.Evdev) bool {
	abs := dev.AbsoluteTypes()
	if len(abs) == 0 {
		return false
	}
	for code := range dev.KeyTypes() {
		if _, ok := buttonTable[code]; ok {
			return true
		}
	}
	return false
}

// Candidate describes one gamepad-capable device found by ListCandidates.
type Candidate struct {
	Path string
	Name string
}

// ListCandidates walks /dev/input/event* and returns every device that
// passes hasGamepadCapabilities, for the CLI's list-devices command.
func ListCandidates() ([]Candidate, error) {
	entries, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("inputsvc: scan /dev/input: %w", err)
	}
	sort.Strings(entries)
	var out []Candidate
	for _, path := range entries {
		dev, err := evdev.OpenFile(path)
		if err != nil {
			continue
		}
		if hasGamepadCapabilities(dev) {
			out = append(out, Candidate{Path: path, Name: dev.Name()})
		}
		dev.Close()
	}
	return out, nil
}

// scanForGamepad walks /dev/input/event* in name order and returns the
// first path whose device advertises both absolute axes and at least one
// gamepad button code.
func scanForGamepad() (string, error) {
	entries, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return "", fmt.Errorf("inputsvc: scan /dev/input: %w", err)
	}
	sort.Strings(entries)
	for _, path := range entries {
		dev, err := evdev.OpenFile(path)
		if err != nil {
			continue
		}
		ok := hasGamepadCapabilities(dev)
		dev.Close()
		if ok {
			return path, nil
		}
	}
	if _, err := os.Stat("/dev/input"); err != nil {
		return "", fmt.Errorf("inputsvc: %w", err)
	}
	return "", fmt.Errorf("inputsvc: no gamepad-capable device found: %w", hiderrors.ErrDeviceUnsupported)
}
