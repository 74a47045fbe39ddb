package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quangtn/github-session-gateway/gateway"
	"github.com/quangtn/github-session-gateway/github"
	"github.com/quangtn/github-session-gateway/internal/config"
	"github.com/quangtn/github-session-gateway/internal/metrics"
	"github.com/quangtn/github-session-gateway/server"
	"github.com/quangtn/github-session-gateway/sessions"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	collector := metrics.NewCollector()

	client := github.NewClient(c.GetAPIBaseURL(),
		github.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		github.WithRateLimit(c.GetRequestsPerSecond(), c.GetRequestBurst()),
		github.WithObserver(collector),
	)
	cloner := github.NewCloneRunner(
		github.WithGitBinary(c.GetGitBinary()),
		github.WithCloneTimeout(c.GetCloneTimeout()),
		github.WithCloneBaseDir(c.GetCloneBaseDir()),
	)

	gw, err := gateway.New(sessions.NewInMemoryStore(), client, cloner, gateway.WithRecorder(collector))
	if err != nil {
		return fmt.Errorf("gateway.New: %w", err)
	}

	srv, err := server.New(c, gw, collector)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	srv.StartSweeper()
	defer srv.StopSweeper()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
