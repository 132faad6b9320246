package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neuroplastio/neio-hogpad/internal/hiderrors"
	"github.com/neuroplastio/neio-hogpad/pkg/agent/agentcli"
)

// Exit codes match the control surface's documented contract: 0 success,
// 1 configuration error, 2 transport bring-up failure, 3 permission/D-Bus
// denial, 4 dirty shutdown.
const (
	exitOK               = 0
	exitConfigError      = 1
	exitTransportBringUp = 2
	exitPermissionDenied = 3
	exitDirtyShutdown    = 4
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, hiderrors.ErrPermissionDenied):
		return exitPermissionDenied
	case errors.Is(err, hiderrors.ErrInvalidMode),
		errors.Is(err, hiderrors.ErrInvalidRate),
		errors.Is(err, hiderrors.ErrInvalidAddress),
		errors.Is(err, hiderrors.ErrInvalidConfig):
		return exitConfigError
	case errors.Is(err, hiderrors.ErrRegistrationFailed),
		errors.Is(err, hiderrors.ErrAdvertisementFailed),
		errors.Is(err, hiderrors.ErrNoUdcAvailable),
		errors.Is(err, hiderrors.ErrGadgetAlreadyExists),
		errors.Is(err, hiderrors.ErrConfigfsNotMounted):
		return exitTransportBringUp
	default:
		return exitDirtyShutdown
	}
}

func main() {
	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := agentcli.Main(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}
