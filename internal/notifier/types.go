package notifier

import (
	"time"

	kit "storewatch/internal/transport"
)

type Config struct {
	Enabled     bool
	Target      kit.ChatTarget
	RatePerSec  int
	SendTimeout time.Duration
	HistorySize int
}

type HistoryItem struct {
	At    time.Time
	Kind  string
	Text  string
	Error string
}
