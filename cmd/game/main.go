package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/tomz197/cubefall/internal/config"
	"github.com/tomz197/cubefall/internal/logging"
	"github.com/tomz197/cubefall/internal/sim"
	"github.com/tomz197/cubefall/internal/viewer"
	"golang.org/x/term"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	logger, err := logging.New("game", settings.LogLevel)
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	if err := run(settings); err != nil {
		logger.Fatal("game error", "error", err)
	}
}

// run owns the terminal for the whole session. Logs would tear the raw-mode
// screen, so the simulation and viewer log nowhere while it is active.
func run(settings config.Settings) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	pub := sim.NewPublisher()
	opts := sim.OptionsFrom(settings)
	opts.Logger = logging.Discard()
	simCtx, err := sim.New(opts, pub)
	if err != nil {
		return fmt.Errorf("create simulation: %w", err)
	}
	defer simCtx.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	simDone := make(chan error, 1)
	go func() { simDone <- simCtx.Run(ctx) }()

	v := viewer.New(pub, simCtx, bufio.NewReader(os.Stdin), os.Stdout, viewer.Options{
		Logger: logging.Discard(),
	})
	viewErr := v.Run(ctx)

	cancel()
	if err := <-simDone; err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	return viewErr
}
