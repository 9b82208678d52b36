package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bassista/go_fest/internal/changes"
	"github.com/bassista/go_fest/internal/config"
	"github.com/bassista/go_fest/internal/connectivity"
	"github.com/bassista/go_fest/internal/content"
	"github.com/bassista/go_fest/internal/favorites"
	"github.com/bassista/go_fest/internal/kvstore"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/schedule"
	"github.com/bassista/go_fest/internal/scheduledata"
	"github.com/bassista/go_fest/internal/scheduler"
	"github.com/bassista/go_fest/internal/wpapi"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config    *config.Config
	Store     kvstore.Store
	API       *wpapi.Client
	Favorites *favorites.Store
	Changes   *changes.Coordinator
	Schedule  *scheduledata.Controller
	Monitor   *connectivity.Monitor
	Prober    *connectivity.Prober
	Content   *content.Source

	BaseCtx context.Context
	Cancel  context.CancelFunc

	unsubscribe  func()
	mu           sync.Mutex
	loops        []<-chan struct{}
	shutdownOnce sync.Once
}

// NewStore opens the storage backend selected in cfg.
func NewStore(ctx context.Context, cfg config.StorageConfig) (kvstore.Store, error) {
	return kvstore.NewStoreFromOptions(ctx, kvstore.Options{
		Type:      cfg.Type,
		FilePath:  cfg.FilePath,
		BadgerDir: cfg.BadgerDir,
		Redis: kvstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		},
	})
}

// NewAPIClient builds the content API client from cfg.
func NewAPIClient(cfg config.APIConfig) *wpapi.Client {
	return wpapi.NewClient(cfg.BaseURL, wpapi.Paths{
		Schedule:      cfg.SchedulePath,
		Changes:       cfg.ChangesPath,
		Announcements: cfg.AnnouncementsPath,
		Venues:        cfg.VenuesPath,
	}, &http.Client{Timeout: cfg.Timeout})
}

// New wires every component on top of store. The app owns store from here on and closes
// it on Shutdown. The device is assumed online until the first connectivity sample.
func New(cfg *config.Config, store kvstore.Store, api *wpapi.Client) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if api == nil {
		return nil, errors.New("api client is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	monitor := connectivity.NewMonitor(true)
	data := scheduledata.New(schedule.NewCache(store), api, monitor.IsOnline())

	a := &App{
		Config:    cfg,
		Store:     store,
		API:       api,
		Favorites: favorites.NewStore(store),
		Changes:   changes.NewCoordinator(changes.NewMetadataStore(store), api),
		Schedule:  data,
		Monitor:   monitor,
		Prober:    connectivity.NewProber(cfg.Sync.ConnectivityProbeURL, cfg.Sync.ConnectivityInterval, nil),
		Content:   content.NewSource(api, store, monitor.IsOnline),
		BaseCtx:   ctx,
		Cancel:    cancel,
	}
	a.unsubscribe = monitor.Subscribe(data.SetOnline)
	return a, nil
}

// StartWatchers launches the background loops: connectivity probing, the storage file
// watcher (file backend only) and the sync scheduler.
func (a *App) StartWatchers() error {
	log := logger.WithComponent("app")

	a.track(a.Prober.Start(a.BaseCtx, a.Monitor))

	if fs, ok := a.Store.(*kvstore.FileStore); ok && a.Config.Storage.Watch {
		if err := fs.StartWatcher(a.BaseCtx); err != nil {
			return fmt.Errorf("cannot start store file watcher: %w", err)
		}
		log.Infof("watching %s for external edits", a.Config.Storage.FilePath)
	}

	s := scheduler.NewPollingScheduler(a.Changes, a.Schedule, a.Config.Sync.PollInterval)
	a.track(s.Start(a.BaseCtx))
	return nil
}

func (a *App) track(done <-chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loops = append(a.loops, done)
}

// Shutdown stops the loops, freezes the schedule controller and closes the store.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.shutdownOnce.Do(func() {
		a.Cancel()

		a.mu.Lock()
		loops := a.loops
		a.mu.Unlock()
		for _, done := range loops {
			<-done
		}

		a.unsubscribe()
		a.Schedule.Close()
		if err := a.Store.Close(); err != nil {
			logger.WithComponent("app").Warnf("closing store: %v", err)
		}
	})
}
