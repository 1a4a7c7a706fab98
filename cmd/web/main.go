package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tomz197/cubefall/internal/config"
	"github.com/tomz197/cubefall/internal/logging"
	"github.com/tomz197/cubefall/internal/sim"
	"github.com/tomz197/cubefall/internal/stats"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

//go:embed index.html
var htmlPage string

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	logger, err := logging.New("web", settings.LogLevel)
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")

	pub := sim.NewPublisher()
	opts := sim.OptionsFrom(settings)
	opts.Logger = logger.WithPrefix("sim")
	simCtx, err := sim.New(opts, pub)
	if err != nil {
		logger.Fatal("failed to create simulation", "error", err)
	}
	defer simCtx.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simStopped := make(chan struct{})
	go func() {
		defer close(simStopped)
		if err := simCtx.Run(ctx); err != nil {
			logger.Error("simulation stopped", "error", err)
			stop()
		}
	}()

	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost)
	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           newMux(page, stats.NewHandler(pub, logger, 0)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting web server", "addr", "http://"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", "viewers", pub.Viewers())

	// Streams send a going-away close frame once Done fires.
	pub.Shutdown(2 * time.Second)
	<-simStopped

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// newMux serves the page at / and the snapshot stream at /ws.
func newMux(page string, stream http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	mux.Handle("/ws", stream)
	return mux
}
