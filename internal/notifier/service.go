package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"storewatch/internal/report"
	kit "storewatch/internal/transport"
	logx "storewatch/pkg/logx"
)

var ErrNoTarget = errors.New("notifier has no target chat")

// Service is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	log     logx.Logger
	sender  kit.Sender
	cfg     Config
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender kit.Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{sender: sender, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Send delivers msg once. Link previews are always disabled.
func (s *Service) Send(ctx context.Context, msg report.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	sender := s.sender
	log := s.log
	s.mu.Unlock()

	if !cfg.Enabled {
		log.Info("notifier disabled; report not sent", logx.String("kind", msg.Kind.String()), logx.String("text", msg.Text))
		s.appendHistory(msg, nil)
		return nil
	}
	if cfg.Target.IsZero() {
		return ErrNoTarget
	}
	if sender == nil {
		return errors.New("notifier has no transport")
	}

	if err := lim.Wait(ctx); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()
	ref, err := sender.SendText(callCtx, cfg.Target, msg.Text, &kit.SendOptions{ParseMode: msg.ParseMode, DisablePreview: true})
	s.appendHistory(msg, err)
	if err != nil {
		return err
	}
	log.Debug("report sent", logx.String("kind", msg.Kind.String()), logx.Int64("chat_id", ref.ChatID), logx.Int("message_id", ref.MessageID))
	return nil
}

func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(msg report.Message, err error) {
	s.mu.Lock()
	max := s.cfg.HistorySize
	s.mu.Unlock()

	it := HistoryItem{At: time.Now(), Kind: msg.Kind.String(), Text: msg.Text}
	if err != nil {
		it.Error = err.Error()
	}
	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > max {
		s.history = s.history[len(s.history)-max:]
	}
	s.hmu.Unlock()
}
