package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "storewatch/internal/transport"
	logx "storewatch/pkg/logx"
)

type Config struct {
	Token string
	// URL overrides the Bot API endpoint (tests, local bot API servers).
	URL string
	// Timeout bounds every Bot API request.
	Timeout time.Duration
	// Offline skips the getMe handshake at construction time.
	Offline bool
}

// Adapter is a send-only Telegram client. It never polls for updates.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   strings.TrimSpace(cfg.Token),
		URL:     strings.TrimRight(cfg.URL, "/"),
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	if !cfg.Offline && b.Me != nil {
		log.Info("telegram bot ready", logx.String("username", b.Me.Username))
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// ResolveChat accepts a numeric chat id ("-1001234567890") or a public
// username ("@channel"). Usernames are looked up once via getChat.
func (a *Adapter) ResolveChat(ctx context.Context, ref string) (kit.ChatTarget, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return kit.ChatTarget{}, errors.New("telegram chat is empty")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if id == 0 {
			return kit.ChatTarget{}, errors.New("telegram chat id must not be 0")
		}
		return kit.ChatTarget{ChatID: id}, nil
	}
	if !strings.HasPrefix(ref, "@") {
		return kit.ChatTarget{}, fmt.Errorf("telegram chat %q: want a numeric id or @username", ref)
	}
	if err := ctx.Err(); err != nil {
		return kit.ChatTarget{}, err
	}
	chat, err := a.bot.ChatByUsername(ref)
	if err != nil {
		return kit.ChatTarget{}, fmt.Errorf("resolve telegram chat %s: %w", ref, err)
	}
	a.log.Debug("telegram chat resolved", logx.String("ref", ref), logx.Int64("chat_id", chat.ID))
	return kit.ChatTarget{ChatID: chat.ID}, nil
}

// textLimit is Telegram's per-message cap, measured in characters.
const textLimit = 4096

// chunks cuts text at line boundaries so each piece fits in one message.
// A single line longer than limit is hard-cut.
func chunks(text string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.TrimRight(string(cur), "\n"))
			cur = cur[:0]
		}
	}
	for _, ln := range strings.SplitAfter(text, "\n") {
		r := []rune(ln)
		for len(r) > limit {
			flush()
			out = append(out, string(r[:limit]))
			r = r[limit:]
		}
		if len(cur)+len(r) > limit {
			flush()
		}
		cur = append(cur, r...)
	}
	flush()
	return out
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if to.IsZero() {
		return kit.MessageRef{}, errors.New("telegram: no target chat")
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	chat := &tele.Chat{ID: to.ChatID}

	var first kit.MessageRef
	for i, part := range chunks(text, textLimit) {
		if err := ctx.Err(); err != nil {
			return first, err
		}
		msg, err := a.bot.Send(chat, part, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}
	return first, nil
}
