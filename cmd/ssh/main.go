package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	wishlogging "github.com/charmbracelet/wish/logging"
	"github.com/tomz197/cubefall/internal/config"
	"github.com/tomz197/cubefall/internal/draw"
	"github.com/tomz197/cubefall/internal/logging"
	"github.com/tomz197/cubefall/internal/sim"
	"github.com/tomz197/cubefall/internal/viewer"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	logger, err := logging.New("ssh", settings.LogLevel)
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	logger.Info("ssh config", "host", host, "port", port, "hostKeyPath", hostKeyPath)

	// One simulation is shared by every session.
	pub := sim.NewPublisher()
	opts := sim.OptionsFrom(settings)
	opts.Logger = logger.WithPrefix("sim")
	simCtx, err := sim.New(opts, pub)
	if err != nil {
		logger.Fatal("failed to create simulation", "error", err)
	}
	defer simCtx.Close()

	runCtx, cancelSim := context.WithCancel(context.Background())
	simDone := make(chan error, 1)
	simStopped := make(chan struct{})
	go func() {
		defer close(simStopped)
		simDone <- simCtx.Run(runCtx)
	}()

	sessions := &sessionHandler{pub: pub, sim: simCtx, logger: logger}

	sshOpts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			sessions.middleware,
			activeterm.Middleware(),
			wishlogging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Keystrokes are tiny; don't let Nagle batch them.
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		sshOpts = append(sshOpts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(sshOpts...)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "error", err)
		}
	}()

	select {
	case <-done:
	case err := <-simDone:
		logger.Error("simulation stopped", "error", err)
	}
	logger.Info("shutting down", "viewers", pub.Viewers())

	// Viewers show a countdown, then disconnect on their own.
	pub.Shutdown(15 * time.Second)
	cancelSim()
	<-simStopped

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "error", err)
	}
}

// sessionHandler runs one terminal viewer per SSH session.
type sessionHandler struct {
	pub    *sim.Publisher
	sim    *sim.Context
	logger *log.Logger
}

func (h *sessionHandler) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		h.logger.Info("session started", "user", sess.User(), "term", pty.Term,
			"width", pty.Window.Width, "height", pty.Window.Height)

		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		v := viewer.New(h.pub, h.sim, bufio.NewReader(sess), sess, viewer.Options{
			TermSizeFunc: sizeTracker.getSize,
			Name:         sess.User(),
			Logger:       h.logger,
		})
		if err := v.Run(sess.Context()); err != nil {
			h.logger.Warn("viewer error", "user", sess.User(), "error", err)
		}

		h.logger.Info("session ended", "user", sess.User())
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
