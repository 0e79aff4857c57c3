package transport

import "context"

// ChatTarget addresses a chat and, for forum supergroups, a topic thread.
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

func (t ChatTarget) IsZero() bool { return t.ChatID == 0 }

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender delivers text to a chat. Implementations must honor ctx cancellation
// before performing network I/O.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// ChatResolver turns a configured chat reference (numeric id or @username)
// into a target.
type ChatResolver interface {
	ResolveChat(ctx context.Context, ref string) (ChatTarget, error)
}
