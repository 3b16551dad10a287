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
	"github.com/jrsteele09/livee-admin-console/internal/config"
	"github.com/jrsteele09/livee-admin-console/internal/logging"
	"github.com/jrsteele09/livee-admin-console/server"
	"github.com/jrsteele09/livee-admin-console/server/businessrepo"
	refreshrepofake "github.com/jrsteele09/livee-admin-console/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/livee-admin-console/users/repofake"
	"github.com/rs/zerolog/log"
)

func main() {
	c := config.New()
	log.Logger = logging.New(c.GetLogLevel(), c.GetEnv(), os.Stderr)

	for {
		if err := run(c); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName() + " dev")

	businesses, closeRepo, err := businessRepo(c.GetDataSource())
	if err != nil {
		return err
	}
	defer closeRepo()

	handler, err := server.New(c, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		Businesses:    businesses,
	}, server.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// businessRepo picks SQLite when a data source is configured.
func businessRepo(dataSource string) (businessrepo.Repo, func(), error) {
	if dataSource == "" {
		log.Info().Msg("Using in-memory business store")
		return businessrepo.NewInMemoryRepo(), func() {}, nil
	}
	repo, err := businessrepo.NewSQLiteRepo(dataSource)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("dataSource", dataSource).Msg("Using SQLite business store")
	return repo, func() { _ = repo.Close() }, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
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
