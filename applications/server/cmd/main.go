package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mdp/qrterminal/v3"
	"golang.org/x/sync/errgroup"

	"github.com/donmikel/lanshare/applications/server"
	"github.com/donmikel/lanshare/applications/server/adapters/disk"
	"github.com/donmikel/lanshare/applications/server/adapters/inmemory"
	"github.com/donmikel/lanshare/applications/server/config"
	"github.com/donmikel/lanshare/applications/server/handlers/http"
	"github.com/donmikel/lanshare/applications/server/interfaces"
	"github.com/donmikel/lanshare/applications/server/netaddr"
	"github.com/donmikel/lanshare/applications/server/services"
)

// exitCode is a process termination code.
type exitCode int

// Possible process termination codes are listed below.
const (
	// exitSuccess is code for successful program termination.
	exitSuccess exitCode = 0
	// exitFailure is code for unsuccessful program termination.
	exitFailure exitCode = 1
)

// Shutdown timeout for http servers.
const shutdownTimeout = 5 * time.Second

var (
	// version is the service version from git tag.
	version = ""
)

func main() {
	os.Exit(int(gracefulMain()))
}

// gracefulMain releases resources gracefully upon termination.
// When we call os.Exit defer statements do not run resulting in unclean process shutdown.
// nolint
func gracefulMain() exitCode {
	var logger log.Logger
	{
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("config", "", "path to the config file")
	v := fs.Bool("v", false, "Show version")

	err := fs.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		return exitSuccess
	}
	if err != nil {
		logger.Log("msg", "parsing cli flags failed", "err", err)
		return exitFailure
	}

	if *v {
		if version == "" {
			level.Error(logger).Log("msg", "version not set")
		} else {
			level.Info(logger).Log("version", version)
		}

		return exitSuccess
	}

	logger.Log("configPath", *configPath)

	cfg, err := config.Parse(*configPath)
	if err != nil {
		logger.Log("msg", "cannot parse service config", "err", err)
		return exitFailure
	}

	err = cfg.Validate()
	if err != nil {
		logger.Log("msg", "config validation failed", "err", err)
		return exitFailure
	}

	// It's nice to be able to see panics in Logs, hence we monitor for panics after
	// logger has been bootstrapped.
	defer monitorPanic(logger)
	ctx := context.Background()

	indexPath, err := filepath.Abs(cfg.Static.IndexPath)
	if err != nil {
		level.Error(logger).Log("msg", "cannot resolve index path", "err", err)
		return exitFailure
	}

	maxUploadBytes, err := cfg.Upload.MaxBytes()
	if err != nil {
		level.Error(logger).Log("msg", "cannot parse upload limit", "err", err)
		return exitFailure
	}

	var registry interfaces.FileRegistry
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		registry = inmemory.NewRegistry(logger)
	default:
		uploadDir, err := filepath.Abs(cfg.Storage.UploadDir)
		if err != nil {
			level.Error(logger).Log("msg", "cannot resolve upload directory", "err", err)
			return exitFailure
		}
		registry = disk.NewRegistry(uploadDir, logger)
	}

	var fileService server.FileService
	{
		fileService = services.NewService(registry)
	}

	hServer := http.NewHTTPServer(cfg.API, fileService, http.Options{
		IndexPath:      indexPath,
		MaxUploadBytes: maxUploadBytes,
	}, logger)

	announce(cfg, logger)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-sig:
			level.Info(logger).Log("msg", "terminating...")

			return fmt.Errorf("signal received: %s", s)
		}
	})

	group.Go(func() error {
		if err := hServer.ListenAndServe(); err != nil {
			return fmt.Errorf("listen and server error: %w", err)
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

	if err = group.Wait(); err != nil {
		level.Error(logger).Log("msg", fmt.Sprintf("actors stopped with err: %v", err))
		return exitFailure
	}

	level.Info(logger).Log("msg", "actors stopped without errors")

	return exitSuccess
}

// announce logs the LAN URL of the server and optionally prints it as a QR code.
func announce(cfg config.Server, logger log.Logger) {
	_, port, err := net.SplitHostPort(cfg.API.HTTPAddr)
	if err != nil {
		level.Warn(logger).Log("msg", "cannot split listen address", "err", err)
		return
	}

	ip := netaddr.NewResolver(cfg.Address.PreferGateway, logger).LocalIP()
	url := fmt.Sprintf("http://%s", net.JoinHostPort(ip, port))

	level.Info(logger).Log("msg", "listening",
		"addr", cfg.API.HTTPAddr,
		"url", url,
	)

	if cfg.Address.ShowQR {
		qrterminal.GenerateHalfBlock(url, qrterminal.L, os.Stdout)
	}
}

// monitorPanic monitors panics and reports them somewhere (e.g. logs, ...).
func monitorPanic(logger log.Logger) {
	if rec := recover(); rec != nil {
		err := fmt.Sprintf("panic: %v \n stack trace: %s", rec, debug.Stack())
		level.Error(logger).Log("err", err)
		panic(err)
	}
}
