package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/opentimber/fieldsync/internal/adapter"
	"github.com/opentimber/fieldsync/internal/config"
	"github.com/opentimber/fieldsync/internal/connectivity"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/service"
	"github.com/opentimber/fieldsync/internal/store"
	"github.com/opentimber/fieldsync/internal/utils"
	"github.com/opentimber/fieldsync/internal/workers"
	"github.com/opentimber/fieldsync/models"
)

// disposeTimeout bounds the shutdown sequence (final backup included).
const disposeTimeout = 30 * time.Second

// App is the composed field-device runtime. Construction only wires
// dependencies; timers and subscriptions start in Init.
type App struct {
	cfg    *config.AppConfig
	logger *logger.Logger

	store    store.LocalStore
	registry adapter.RegistryClient
	monitor  *connectivity.ProbeMonitor
	sched    *workers.TickerScheduler

	queue   service.SyncQueue
	engine  service.SyncEngine
	records *service.RecordStore
	backups *service.BackupManager

	forms       *service.AreaProvider
	preferences *service.AreaProvider
	navigation  *service.AreaProvider

	unsubscribe func()
	stopSync    func()
	disposeOnce sync.Once
	done        chan struct{}
}

func NewApp(cfg *config.AppConfig, log *logger.Logger) (*App, error) {
	var st store.LocalStore
	var err error
	if cfg.Storage.DB.DSN == "" {
		log.Info().Msg("no database path configured, using in-memory store")
		st = store.NewMemoryStore(cfg.Storage.MaxBytes)
	} else {
		st, err = store.NewLocalStore(cfg.Storage, log)
		if err != nil {
			return nil, fmt.Errorf("creating local store: %w", err)
		}
	}

	registry, err := adapter.NewHTTPRegistryClient(cfg.Registry, cfg.App, log)
	if err != nil {
		return nil, fmt.Errorf("creating registry client: %w", err)
	}

	ctx := context.Background()
	queue := service.NewSyncQueue(ctx, st, cfg.Sync.MaxRetries, log)
	records := service.NewRecordStore(st, queue, utils.NewUUIDGenerator(), log)

	monitor := connectivity.NewProbeMonitor(registry, log)
	engine := service.NewSyncEngine(queue, registry, monitor,
		func(ctx context.Context, item models.SyncItem) {
			if err := records.MarkSynced(ctx, item.ID); err != nil {
				log.Warn().Err(err).Str("record", item.ID).
					Str("func", "App.NewApp").
					Msg("delivered record missing locally")
			}
		}, log)

	forms := service.NewAreaProvider("forms", st)
	preferences := service.NewAreaProvider("preferences", st)
	navigation := service.NewAreaProvider("navigation", st)

	backups := service.NewBackupManager(st, registry,
		[]service.SnapshotProvider{forms, preferences, navigation, records},
		utils.NewUUIDGenerator(), cfg, log)

	return &App{
		cfg:         cfg,
		logger:      log,
		store:       st,
		registry:    registry,
		monitor:     monitor,
		sched:       workers.NewTickerScheduler(),
		queue:       queue,
		engine:      engine,
		records:     records,
		backups:     backups,
		forms:       forms,
		preferences: preferences,
		navigation:  navigation,
		done:        make(chan struct{}),
	}, nil
}

// Init starts the connectivity probe, the periodic drain, the backup cycle,
// and the online-edge subscription.
func (a *App) Init(ctx context.Context) error {
	a.monitor.Init(a.sched, a.cfg.Sync.ProbeInterval)
	a.backups.Init(a.sched, a.cfg.Backup.Interval)

	a.unsubscribe = a.monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		a.logger.Info().Str("func", "App.Init").Msg("back online, draining sync queue")
		if err := a.engine.Drain(context.Background()); err != nil {
			a.logger.Error().Err(err).Str("func", "App.Init").Msg("drain failed")
		}
	})

	a.stopSync = a.sched.Every(a.cfg.Sync.Interval, func(ctx context.Context) {
		if err := a.engine.Drain(ctx); err != nil {
			a.logger.Error().Err(err).Str("func", "App.Init").Msg("periodic drain failed")
		}
	})

	// one immediate probe so a reachable registry is noticed before the
	// first tick
	a.monitor.Check(ctx)

	a.logger.Info().
		Dur("sync_interval", a.cfg.Sync.Interval).
		Dur("backup_interval", a.cfg.Backup.Interval).
		Dur("probe_interval", a.cfg.Sync.ProbeInterval).
		Msg("fieldsync runtime started")
	return nil
}

// Run blocks until an interrupt or termination signal arrives, then tears
// the runtime down.
func (a *App) Run() error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case s := <-sig:
		a.logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
	case <-a.done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancel()
	a.Dispose(ctx)
	return nil
}

// Shutdown asks a blocked Run to exit. Used by hosts embedding the runtime.
func (a *App) Shutdown() {
	close(a.done)
}

// Dispose stops timers and subscriptions, lets the in-flight delivery
// finish, takes the final backup via the scheduler's shutdown hooks, and
// closes the store. Idempotent.
func (a *App) Dispose(ctx context.Context) {
	a.disposeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		if a.stopSync != nil {
			a.stopSync()
		}
		a.monitor.Dispose()
		a.backups.Dispose()

		// no new deliveries start past this point; the in-flight one
		// completes
		a.engine.Stop()

		a.sched.Shutdown(ctx)

		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Str("func", "App.Dispose").Msg("closing store failed")
		}
		a.logger.Info().Msg("fieldsync runtime stopped")
	})
}

// SyncNow refreshes connectivity and triggers a drain cycle on demand.
func (a *App) SyncNow(ctx context.Context) error {
	a.monitor.Check(ctx)
	return a.engine.Drain(ctx)
}

// Records exposes the capture service to the application layer.
func (a *App) Records() service.RecordService { return a.records }

// Backups exposes the backup service to the application layer.
func (a *App) Backups() service.BackupService { return a.backups }

// Queue exposes the sync queue for inspection (pending counts, failed-final
// review).
func (a *App) Queue() service.SyncQueue { return a.queue }

// Online reports the last known registry reachability.
func (a *App) Online() bool { return a.monitor.Online() }

// Area returns the named application data area, or nil for unknown names.
func (a *App) Area(name string) *service.AreaProvider {
	switch name {
	case "forms":
		return a.forms
	case "preferences":
		return a.preferences
	case "navigation":
		return a.navigation
	default:
		return nil
	}
}
