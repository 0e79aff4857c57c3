// Package schedule triggers a job on a cron expression or a fixed interval.
//
// Triggers never overlap: a tick that fires while the previous run is still
// in progress is skipped and logged.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "storewatch/pkg/logx"
)

type Config struct {
	Enabled    bool
	Spec       string
	Timezone   string
	RunOnStart bool
	// Timeout bounds a single run. Zero means no bound beyond the service context.
	Timeout time.Duration
}

// Job is one triggered run.
type Job func(ctx context.Context)

type Service struct {
	mu     sync.Mutex
	cfg    Config
	log    logx.Logger
	job    Job
	parser cron.Parser

	c     *cron.Cron
	loc   *time.Location
	entry cron.EntryID
	run   cron.Job
	base  context.Context

	// startup tracks run-on-start runs; cron only waits for jobs it started.
	startup sync.WaitGroup
	// retired holds the stop contexts of schedules replaced by Apply.
	retired []context.Context
	stopped bool
}

func New(cfg Config, job Job, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg: cfg,
		log: log,
		job: job,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
	// One guarded job for the service lifetime, so a reload never lets an
	// old in-flight run overlap with the rebuilt schedule.
	s.run = cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: log})).Then(cron.FuncJob(s.fire))
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

// Validate reports whether cfg would be accepted by Start or Apply.
func (s *Service) Validate(cfg Config) error {
	_, err := s.schedule(cfg.Spec)
	if err != nil {
		return err
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
	}
	return nil
}

// Start begins triggering. Runs receive a context derived from ctx, so
// cancelling ctx aborts the in-flight run's I/O.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("schedule already stopped")
	}
	if s.c != nil {
		return nil
	}
	if !s.cfg.Enabled {
		s.log.Info("schedule disabled")
		return nil
	}
	s.base = ctx
	if err := s.startLocked(); err != nil {
		return err
	}
	if s.cfg.RunOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.run.Run()
		}()
	}
	return nil
}

func (s *Service) startLocked() error {
	sched, err := s.schedule(s.cfg.Spec)
	if err != nil {
		return err
	}
	s.loc = s.loadLocationLocked()

	clog := cronLogger{log: s.log}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(s.loc),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog)),
	)
	s.entry = s.c.Schedule(sched, s.run)
	s.c.Start()

	s.log.Info("schedule started",
		logx.String("spec", strings.TrimSpace(s.cfg.Spec)),
		logx.String("tz", s.loc.String()),
		logx.Time("next", s.c.Entry(s.entry).Next),
	)
	return nil
}

func (s *Service) fire() {
	s.mu.Lock()
	base := s.base
	timeout := s.cfg.Timeout
	job := s.job
	s.mu.Unlock()

	if base == nil || base.Err() != nil || job == nil {
		return
	}
	ctx := base
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, timeout)
		defer cancel()
	}
	job(ctx)
}

// Apply swaps in a new config. A running schedule is rebuilt when the spec,
// timezone or enabled flag changed; an in-flight run is left to finish.
func (s *Service) Apply(cfg Config) error {
	if cfg.Enabled {
		if err := s.Validate(cfg); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cfg
	s.cfg = cfg
	if s.base == nil {
		return nil
	}

	changed := old.Enabled != cfg.Enabled ||
		strings.TrimSpace(old.Spec) != strings.TrimSpace(cfg.Spec) ||
		strings.TrimSpace(old.Timezone) != strings.TrimSpace(cfg.Timezone)
	if !changed {
		return nil
	}
	if s.c != nil {
		s.retired = append(s.retired, s.c.Stop())
		s.c = nil
	}
	if !cfg.Enabled {
		s.log.Info("schedule disabled by reload")
		return nil
	}
	return s.startLocked()
}

// Stop halts triggering and waits for in-flight runs until ctx is done. This
// includes the run-on-start run and runs of schedules replaced by Apply.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	waits := s.retired
	if s.c != nil {
		waits = append(waits, s.c.Stop())
	}
	s.c = nil
	s.retired = nil
	s.base = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, w := range waits {
			<-w.Done()
		}
		s.startup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("schedule stop timed out; run still in progress")
	}
	s.log.Info("schedule stopped", logx.Duration("took", time.Since(start)))
}

// Next returns the next trigger time, or the zero time when not running.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}
	}
	return s.c.Entry(s.entry).Next
}

func (s *Service) schedule(raw string) (cron.Schedule, error) {
	ps, err := ParseSchedule(raw)
	if err != nil {
		return nil, err
	}
	if ps.Kind == SpecInterval {
		return cron.Every(ps.Every), nil
	}
	sched, err := s.parser.Parse(ps.Cron)
	if err != nil {
		return nil, fmt.Errorf("invalid cron %q: %w", ps.Cron, err)
	}
	return sched, nil
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

// cronLogger routes robfig/cron's internal logging into logx.
type cronLogger struct {
	log logx.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.log.Warn("previous run still in progress; tick skipped")
		return
	}
	l.log.Debug("cron "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
