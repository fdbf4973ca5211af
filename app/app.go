// Package app wires the invocation pipeline, the status checker and the
// optional outer surfaces (tray, metrics, history, notifications) into one
// application.
package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/checker"
	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/config"
	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/history"
	"github.com/yllada/vpn-tray/keyring"
	"github.com/yllada/vpn-tray/metrics"
	"github.com/yllada/vpn-tray/notify"
	"github.com/yllada/vpn-tray/process"
	"github.com/yllada/vpn-tray/queue"
)

// Options customize New. The zero value uses the user's config directory
// and the process-wide logger.
type Options struct {
	Log common.Logger
	// Dir holds actions.yaml, history.db and the credentials file.
	Dir string
	// Secrets overrides the keyring store.
	Secrets *keyring.Store
	// Notifier overrides the desktop notifier. It is only used when
	// notifications are enabled in the configuration.
	Notifier *notify.Notifier
	// NoHistory disables the invocation database.
	NoHistory bool
}

// App owns every long-lived component.
type App struct {
	Config     *config.Config
	Bus        *events.Bus
	Actions    *action.Store
	Catalog    *action.Catalog
	Secrets    *keyring.Store
	Serializer *queue.Serializer
	Publisher  *events.Publisher
	Checker    *checker.Checker
	Dispatcher *Dispatcher
	History    *history.SQLiteRepository
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry

	log      common.Logger
	notifier *notify.Notifier
	cleanup  []func()
}

// component returns a tagged view of log when it supports one.
func component(log common.Logger, name string) common.Logger {
	if l, ok := log.(*common.AppLogger); ok {
		return l.WithComponent(name)
	}
	return log
}

// New builds the application from cfg. Nothing runs until Run.
func New(cfg *config.Config, opts Options) (*App, error) {
	log := opts.Log
	if log == nil {
		log = common.GetLogger()
	}
	dir := opts.Dir
	if dir == "" {
		d, err := common.GetConfigDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	a := &App{
		Config: cfg,
		Bus:    events.NewBus(),
		log:    log,
	}

	actions, err := action.NewStore(filepath.Join(dir, common.ActionsFileName))
	if err != nil {
		return nil, err
	}
	a.Actions = actions
	a.Catalog = action.NewCatalog(cfg.ResolveToolPath(), cfg.Favorites, actions)

	a.Secrets = opts.Secrets
	if a.Secrets == nil {
		a.Secrets = keyring.New(dir, component(log, "keyring"))
	}

	invoker := process.NewInvoker(component(log, "invoker"), process.Hooks{
		OnStarting: func(req process.Request) {
			a.Bus.Starting.Publish(events.InvocationStarting{
				RequesterID: req.RequesterID,
				Executable:  req.Path,
				Args:        append([]string(nil), req.Args...),
				CommandLine: req.CommandLine(),
			})
		},
	})
	a.Serializer = queue.NewSerializer(invoker, component(log, "queue"))
	a.Publisher = events.NewPublisher(a.Bus, cfg.ScrollbackLines, component(log, "events"))

	a.Checker = checker.New(a.Serializer, a.Catalog, a.Bus, checker.Config{
		Interval:        cfg.PollInterval(),
		SkipWhenPending: cfg.SkipTickWhenPending,
	}, component(log, "checker"))

	a.Dispatcher = NewDispatcher(DispatcherConfig{
		Catalog:   a.Catalog,
		Submitter: a.Serializer,
		Publisher: a.Publisher,
		Checker:   a.Checker,
		Secrets:   a.Secrets.Lookup,
		Timeout:   cfg.ActionTimeout(),
		Log:       component(log, "dispatch"),
	})

	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.NewCollector(a.Registry)
	a.cleanup = append(a.cleanup, a.Metrics.Subscribe(a.Bus))
	a.Serializer.SetOnDepth(a.Metrics.SetQueueDepth)

	if !opts.NoHistory {
		a.openHistory(filepath.Join(dir, common.HistoryFileName))
	}

	if cfg.ShowNotifications {
		a.notifier = opts.Notifier
		if a.notifier == nil {
			a.notifier = notify.DialOrLog(component(log, "notify"))
		}
		a.cleanup = append(a.cleanup, a.notifier.Subscribe(a.Bus))
	}

	return a, nil
}

// openHistory opens the invocation database and prunes old entries. A
// database that cannot be opened only disables history.
func (a *App) openHistory(path string) {
	repo, err := history.OpenAt(path)
	if err != nil {
		a.log.Warn("invocation history disabled: %v", err)
		return
	}
	a.History = repo

	if n, err := repo.DeleteOlderThan(context.Background(), a.Config.HistoryRetention()); err != nil {
		a.log.Warn("failed to prune history: %v", err)
	} else if n > 0 {
		a.log.Info("Pruned %d history entries", n)
	}
	a.cleanup = append(a.cleanup, a.Bus.Performed.Subscribe(history.Recorder(repo, component(a.log, "history"))))
}

// Surface is a blocking front end, such as the tray or the terminal view.
// It returns when the user quits or ctx is done.
type Surface func(ctx context.Context) error

// Run starts the serializer and the checker, serves metrics when
// configured, and blocks until ctx is done or surface returns.
func (a *App) Run(ctx context.Context, surface Surface) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	a.Serializer.Start(gctx)
	if a.Config.StartActive {
		a.Checker.SetActive(true)
	}

	if addr := a.Config.MetricsAddr; addr != "" {
		srv := metrics.NewServer(addr, a.Registry, component(a.log, "metrics"))
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if surface != nil {
		g.Go(func() error {
			defer cancel()
			return surface(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.Dispatcher.Close()
		a.Checker.Stop()
		a.Serializer.Stop()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.log.Info("Application stopped")
	return err
}

// Close releases the database and the notification bus.
func (a *App) Close() error {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil

	var errs []error
	if a.History != nil {
		errs = append(errs, a.History.Close())
	}
	if a.notifier != nil {
		errs = append(errs, a.notifier.Close())
	}
	return errors.Join(errs...)
}
