package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/stubserver"
)

// exitCode is a process termination code.
type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1
)

// errSignal stops the group when the process is asked to terminate.
var errSignal = errors.New("signal received")

// Shutdown timeout for the http server.
const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(int(gracefulMain()))
}

func gracefulMain() exitCode {
	var logger log.Logger
	{
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	status := fs.Int("status", 0, "Answer every upload with this status instead of echoing it (e.g. 500)")

	err := fs.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		return exitSuccess
	}
	if err != nil {
		logger.Log("msg", "parsing cli flags failed", "err", err)
		return exitFailure
	}

	behavior := stubserver.Behavior(stubserver.Echo)
	if *status != 0 {
		if http.StatusText(*status) == "" {
			level.Error(logger).Log("msg", "unknown status code", "status", *status)
			return exitFailure
		}
		behavior = stubserver.Status(*status)
	}

	hServer := stubserver.NewHTTPServer(*addr, behavior, logger)

	group, ctx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-sig:
			level.Info(logger).Log("msg", "terminating", "signal", s)
			return errSignal
		}
	})

	group.Go(func() error {
		level.Info(logger).Log("msg", "compression stub listening", "addr", *addr, "status", *status)
		if err := hServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		level.Info(logger).Log("msg", "graceful shutdown of server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return ctx.Err()
	})

	if err = group.Wait(); err != nil && !errors.Is(err, errSignal) {
		level.Error(logger).Log("msg", "stopped with error", "err", err)
		return exitFailure
	}
	level.Info(logger).Log("msg", "stopped")
	return exitSuccess
}
