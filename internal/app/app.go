package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storewatch/internal/catalog"
	"storewatch/internal/config"
	"storewatch/internal/cycle"
	"storewatch/internal/notifier"
	"storewatch/internal/runtime/supervisor"
	"storewatch/internal/schedule"
	"storewatch/internal/snapshot"
	kit "storewatch/internal/transport"
	telegram "storewatch/internal/transport/telegram/adapter"
	logx "storewatch/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	adapter *telegram.Adapter // nil in dry-run mode
	target  kit.ChatTarget
	notif   *notifier.Service
	store   snapshot.Store
	runner  *cycle.Runner
	sched   *schedule.Service

	mu      sync.Mutex
	sup     *supervisor.Supervisor
	last    cycle.Outcome
	stopped bool
}

// New loads the config and builds every component. The destination chat is
// resolved here, so a wrong token or chat fails before the first cycle.
func New(ctx context.Context, cfgm *config.Manager) (*App, error) {
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logSvc, root := logx.New(mapLogging(cfg))
	log := root.With(logx.String("comp", "app"))
	cfgm.SetLogger(root.With(logx.String("comp", "config")))

	a := &App{cfgm: cfgm, log: log, logs: logSvc}

	if cfg.NotifierEnabled() {
		ad, err := telegram.New(mapTelegram(cfg), root.With(logx.String("comp", "telegram")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		target, err := resolveTarget(ctx, ad, cfg)
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		a.adapter, a.target = ad, target
	} else {
		log.Warn("notifier disabled; reports are logged, not sent")
	}

	fetcher, err := catalog.NewFetcher(mapCatalog(cfg), nil, root.With(logx.String("comp", "catalog")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	store, err := snapshot.Open(mapSnapshot(cfg), root.With(logx.String("comp", "snapshot")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	a.store = store

	var sender kit.Sender
	if a.adapter != nil {
		sender = a.adapter
	}
	a.notif = notifier.New(mapNotifier(cfg, a.target), sender, root.With(logx.String("comp", "notifier")))
	a.runner = cycle.New(fetcher, store, a.notif, root.With(logx.String("comp", "cycle")))
	a.sched = schedule.New(mapSchedule(cfg), a.runScheduled, root.With(logx.String("comp", "schedule")))

	log.Info("app ready",
		logx.String("config", cfgm.Path()),
		logx.String("catalog", cfg.Catalog.URL),
		logx.String("snapshot_driver", cfg.Snapshot.Driver),
		logx.String("snapshot_path", cfg.Snapshot.Path),
		logx.Int64("chat_id", a.target.ChatID),
	)
	return a, nil
}

// resolveTarget turns telegram.chat into a target and applies the forum thread.
func resolveTarget(ctx context.Context, r kit.ChatResolver, cfg *config.Config) (kit.ChatTarget, error) {
	target, err := r.ResolveChat(ctx, cfg.Telegram.Chat)
	if err != nil {
		return kit.ChatTarget{}, err
	}
	target.ThreadID = cfg.Telegram.ThreadID
	return target, nil
}

func (a *App) Logger() logx.Logger { return a.log }

// RunOnce executes a single cycle.
func (a *App) RunOnce(ctx context.Context) cycle.Outcome {
	out := a.runner.Run(ctx)
	a.mu.Lock()
	a.last = out
	a.mu.Unlock()
	return out
}

func (a *App) runScheduled(ctx context.Context) { a.RunOnce(ctx) }

// Last returns the outcome of the most recent cycle.
func (a *App) Last() cycle.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Start runs the schedule and the config watcher until Stop or ctx is done.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.sup != nil {
		a.mu.Unlock()
		return errors.New("app already started")
	}
	sup := supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))
	a.sup = sup
	a.mu.Unlock()

	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if !cfg.ScheduleEnabled() {
			return nil
		}
		return a.sched.Validate(mapSchedule(cfg))
	})
	updates := a.cfgm.Subscribe(1)

	sup.GoRestart("config.watch", a.cfgm.Watch, 250*time.Millisecond, 10*time.Second)
	sup.Go("config.apply", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(updates)
		prev := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return c.Err()
			case cfg, ok := <-updates:
				if !ok {
					return nil
				}
				a.applyConfig(prev, cfg)
				prev = cfg
			}
		}
	})

	if err := a.sched.Start(sup.Context()); err != nil {
		sup.Cancel()
		return err
	}
	return nil
}

// applyConfig re-applies the parts of a reloaded config that can change at runtime.
func (a *App) applyConfig(prev, cfg *config.Config) {
	ch := config.SummarizeChange(prev, cfg)
	if ch.Empty() {
		return
	}
	a.log.Info("config changed", append(ch.Fields, logx.String("sections", strings.Join(ch.Sections, ",")))...)

	for _, section := range ch.Live {
		switch section {
		case "logging":
			a.logs.Apply(mapLogging(cfg))
		case "schedule":
			if err := a.sched.Apply(mapSchedule(cfg)); err != nil {
				a.log.Warn("schedule reload rejected", logx.Err(err))
			}
		case "notifier":
			if cfg.NotifierEnabled() && a.adapter == nil {
				a.log.Warn("notifier enabled by reload but no bot is configured; restart required")
				continue
			}
			a.notif.Apply(mapNotifier(cfg, a.target))
		}
	}
	if len(ch.RestartRequired) > 0 {
		a.log.Warn("config sections changed that need a restart", logx.String("sections", strings.Join(ch.RestartRequired, ",")))
	}
}

// Done is closed once the app context ends.
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	sup := a.sup
	a.mu.Unlock()
	if sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return sup.Context().Done()
}

// Stop halts triggering, waits for an in-flight cycle until ctx is done and
// releases the snapshot store and log sinks. It is safe to call more than once.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	sup := a.sup
	a.mu.Unlock()

	start := time.Now()
	a.sched.Stop(ctx)

	var errs []error
	if sup != nil {
		if err := sup.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("snapshot close: %w", err))
	}
	a.log.Info("app stopped", logx.Duration("took", time.Since(start)))
	if err := a.logs.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
