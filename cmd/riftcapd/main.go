// Command riftcapd is the recording agent daemon: it watches the League
// client's event stream and drives OBS recording through game phases.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"riftcap/internal/config"
	"riftcap/internal/daemon"
	"riftcap/internal/gameflow"
	"riftcap/internal/ipc"
	"riftcap/internal/lcu"
	"riftcap/internal/library"
	"riftcap/internal/logging"
	"riftcap/internal/notifications"
	"riftcap/internal/recorder"
	"riftcap/internal/services/obs"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := library.Open(cfg)
	if err != nil {
		logger.Error("open capture library", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	lockfilePath := cfg.LockfilePath()
	if lockfilePath == "" {
		if installPath, ok := lcu.NewPathFinder(logger).Find(); ok {
			lockfilePath = filepath.Join(installPath, "lockfile")
		}
	}
	auth := lcu.NewClientAuth(lockfilePath, logger)
	client := lcu.NewClient(auth, logger,
		lcu.WithConnectAttempts(cfg.League.ConnectAttempts),
		lcu.WithConnectBackoff(time.Duration(cfg.League.ConnectBackoffSeconds)*time.Second))

	device := obs.NewClient(cfg.OBS.Host, cfg.OBS.Port, cfg.OBS.Password, logger,
		obs.WithRequestTimeout(time.Duration(cfg.OBS.RequestTimeoutSeconds)*time.Second))
	controller := recorder.New(device, cfg.OBS.ProfileName, logger)

	notifier := notifications.NewService(cfg)
	monitor := gameflow.NewMonitor(controller, logger,
		gameflow.WithIgnoredQueues(cfg.IgnoredQueues()),
		gameflow.WithVerbose(cfg.Logging.Level == "debug"),
		gameflow.WithLibrary(store),
		gameflow.WithNotifier(notifications.NewMonitorNotifier(notifier, logger)),
		gameflow.WithTimings(
			time.Duration(cfg.Recording.ReadyTimeoutSeconds)*time.Second,
			time.Duration(cfg.Recording.StartSettleSeconds)*time.Second,
			time.Duration(cfg.Recording.StopSettleSeconds)*time.Second),
		gameflow.WithFilenamePrefix(cfg.Recording.FilenamePrefix))

	d, err := daemon.New(cfg, client, monitor, controller, store, notifier, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		os.Exit(1)
	}
	defer d.Stop()

	<-ctx.Done()
	logger.Info("riftcapd shutting down")
}
