// Package agent wires the HID report codec, input source, both transports
// and the dispatcher into one supervised process, the way the teacher's
// pkg/agent.Agent wires configsvc/hidsvc/flowsvc together with an
// errgroup-supervised Run.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/neuroplastio/neio-hogpad/hidapi/hidreport"
	"github.com/neuroplastio/neio-hogpad/hidapi/hidstate"
	"github.com/neuroplastio/neio-hogpad/internal/configsvc"
	"github.com/neuroplastio/neio-hogpad/internal/dispatchsvc"
	"github.com/neuroplastio/neio-hogpad/internal/gadgetsvc"
	"github.com/neuroplastio/neio-hogpad/internal/hogsvc"
	"github.com/neuroplastio/neio-hogpad/internal/inputsvc"
)

// reattachInterval bounds how often the agent retries a failed attach of
// the input source. The Dispatcher keeps running in transport-only mode
// while no input source is attached.
const reattachInterval = 2 * time.Second

// stopTimeout bounds how long a transport gets to tear down before a
// config-driven mode switch gives up waiting and starts the new one anyway.
const stopTimeout = 2 * time.Second

// Agent owns every long-lived service this process runs and supervises
// them with one errgroup, matching the teacher's Agent.Run shape. The
// transports and the Dispatcher cannot be built until the config file is
// loaded (they need DeviceName, GadgetName, the rate, ...), so NewAgent
// only constructs the config-independent pieces; Run builds the rest once
// configsvc has produced a Config.
type Agent struct {
	log      *zap.Logger
	logLevel zap.AtomicLevel

	cfgPath   string
	overrides Overrides
	configSvc *configsvc.Service

	state *hidstate.State
	codec *hidreport.Codec
	input *inputsvc.Adapter

	mu         sync.Mutex
	cfg        Config
	dispatcher *dispatchsvc.Dispatcher
}

// NewAgent builds the logger and the config-independent services. Nothing
// touches the kernel or the system bus until Run loads a config and starts
// the chosen transport.
func NewAgent(cfgPath string, overrides Overrides) (*Agent, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	state := hidstate.New()
	return &Agent{
		log:       logger,
		logLevel:  loggerConfig.Level,
		cfgPath:   cfgPath,
		overrides: overrides,
		configSvc: configsvc.New(logger.Named("config")),
		state:     state,
		codec:     hidreport.NewCodec(),
		input:     inputsvc.New(logger.Named("input"), state),
	}, nil
}

func (a *Agent) Codec() *hidreport.Codec { return a.codec }

// Run loads config.yml, builds the BLE/USB transports and the Dispatcher
// from it, and blocks until ctx is cancelled. Dispatcher bring-up failure
// is returned verbatim so main can map it to the TransportBringUp exit
// code; config errors are detected before any transport touches hardware.
func (a *Agent) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.configSvc.Start(groupCtx)
	})

	select {
	case <-groupCtx.Done():
		return group.Wait()
	case <-a.configSvc.Ready():
	}

	cfg, err := configsvc.Register(a.configSvc, a.cfgPath, DefaultConfig(), a.onConfigChange)
	if err != nil {
		return fmt.Errorf("agent: register config: %w", err)
	}
	a.overrides.Apply(&cfg)
	if cfg.Verbose {
		a.logLevel.SetLevel(zap.DebugLevel)
	}

	hog := hogsvc.New(a.log.Named("hog"), a.codec, hogsvc.Config{
		AdapterPath:   dbus.ObjectPath(cfg.AdapterPath),
		DeviceName:    cfg.DeviceName,
		Appearance:    cfg.Appearance,
		StaticAddress: cfg.StaticAddress,
	})
	gadget := gadgetsvc.New(a.log.Named("gadget"), a.codec, cfg.GadgetName, cfg.UDCPath)
	dispatcher := dispatchsvc.New(a.log.Named("dispatch"), a.state, hog, gadget, cfg.ReportRateHz)

	a.mu.Lock()
	a.cfg = cfg
	a.dispatcher = dispatcher
	a.mu.Unlock()

	group.Go(func() error {
		return dispatcher.Run(groupCtx)
	})
	group.Go(func() error {
		return a.runControl(groupCtx, dispatcher, cfg.Mode)
	})
	group.Go(func() error {
		return a.runInput(groupCtx, cfg.InputDevice)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("agent failed: %w", err)
	}
	return nil
}

// runControl starts the configured transport once the Dispatcher's event
// bus is ready, and blocks until ctx is cancelled.
func (a *Agent) runControl(ctx context.Context, dispatcher *dispatchsvc.Dispatcher, modeStr string) error {
	select {
	case <-ctx.Done():
		return nil
	case <-dispatcher.Ready():
	}

	mode, err := dispatchsvc.ParseMode(modeStr)
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := dispatcher.Start(ctx, mode); err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	<-ctx.Done()
	return nil
}

// onConfigChange reacts to a live edit of the config file. A mode change
// stops and restarts the Dispatcher with the new mode and verbose sets the
// log level at once; every other field (rate, device name, ...) only takes
// effect on the next process restart, since it is baked into the
// transports built once in Run.
func (a *Agent) onConfigChange(cfg Config, err error) {
	if err != nil {
		a.log.Error("agent: config reload failed, keeping previous configuration", zap.Error(err))
		return
	}
	a.overrides.Apply(&cfg)
	if cfg.Verbose {
		a.logLevel.SetLevel(zap.DebugLevel)
	} else {
		a.logLevel.SetLevel(zap.InfoLevel)
	}

	a.mu.Lock()
	prev := a.cfg
	a.cfg = cfg
	dispatcher := a.dispatcher
	a.mu.Unlock()

	if dispatcher == nil || prev.Mode == cfg.Mode {
		return
	}
	mode, err := dispatchsvc.ParseMode(cfg.Mode)
	if err != nil {
		a.log.Error("agent: invalid mode in reloaded config", zap.Error(err))
		return
	}
	go func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := dispatcher.Stop(stopCtx); err != nil {
			a.log.Error("agent: stop before mode switch failed", zap.Error(err))
		}
		if err := dispatcher.Start(stopCtx, mode); err != nil {
			a.log.Error("agent: restart after mode switch failed", zap.Error(err))
		}
	}()
}

// runInput attaches the input source named by path (or "auto"), retrying
// every reattachInterval until an attach succeeds, then holds that handle
// until ctx is cancelled. A device that disappears after a successful
// attach is not noticed here and is not re-attached.
func (a *Agent) runInput(ctx context.Context, path string) error {
	ticker := time.NewTicker(reattachInterval)
	defer ticker.Stop()
	for {
		handle, err := a.input.Attach(ctx, path)
		if err != nil {
			a.log.Debug("agent: input attach failed, will retry", zap.Error(err))
		} else {
			a.log.Info("agent: input source attached")
			<-ctx.Done()
			a.input.Detach(handle)
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
