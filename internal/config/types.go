package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "500ms", "30s", "10m").
// Pointer booleans distinguish "omitted" (use the default) from an explicit false.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Catalog  CatalogConfig  `json:"catalog"`
	Snapshot SnapshotConfig `json:"snapshot"`
	Schedule ScheduleConfig `json:"schedule"`
	Notifier NotifierConfig `json:"notifier"`
	Logging  LoggingConfig  `json:"logging"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// Chat is a numeric chat id ("-1001234567890") or a public "@username".
	Chat     string `json:"chat"`
	ThreadID int    `json:"thread_id,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
	// APIURL overrides the Bot API endpoint (local bot API server).
	APIURL string `json:"api_url,omitempty"`
}

// CatalogConfig describes the store endpoint.
//
// Example:
//
//	"catalog": { "url": "https://api.example.com/store/items", "id_field": "_id" }
type CatalogConfig struct {
	URL          string            `json:"url"`
	Timeout      string            `json:"timeout,omitempty"` // default: "30s"
	UserAgent    string            `json:"user_agent,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	IDField      string            `json:"id_field,omitempty"`   // default: "_id", falls back to "id"
	NameField    string            `json:"name_field,omitempty"` // default: "name"
	MaxBodyBytes int64             `json:"max_body_bytes,omitempty"`
}

// SnapshotConfig selects where the baseline lives.
//
// Example:
//
//	"snapshot": { "driver": "sqlite", "path": "./storewatch.db" }
type SnapshotConfig struct {
	Driver      string `json:"driver,omitempty"` // "file" (default) | "sqlite"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type ScheduleConfig struct {
	Enabled    *bool  `json:"enabled,omitempty"`      // default: true
	Spec       string `json:"spec,omitempty"`         // default: "10m"
	Timezone   string `json:"timezone,omitempty"`     // IANA name; default: Local
	RunOnStart *bool  `json:"run_on_start,omitempty"` // default: true
	// Timeout bounds one cycle. "0s" or empty disables the bound.
	Timeout string `json:"timeout,omitempty"`
}

// NotifierConfig controls delivery to the chat.
//
// With enabled=false reports are written to the log instead of being sent.
type NotifierConfig struct {
	Enabled     *bool  `json:"enabled,omitempty"` // default: true
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
	HistorySize int    `json:"history_size,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

const (
	DefaultSchedule       = "10m"
	DefaultCatalogTimeout = "30s"
	DefaultSnapshotPath   = "cached_items.json"
	DefaultSQLitePath     = "storewatch.db"
)

func (c *Config) ScheduleEnabled() bool { return boolOr(c.Schedule.Enabled, true) }
func (c *Config) RunOnStart() bool      { return boolOr(c.Schedule.RunOnStart, true) }
func (c *Config) NotifierEnabled() bool { return boolOr(c.Notifier.Enabled, true) }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ApplyDefaults fills omitted fields in place.
func (c *Config) ApplyDefaults() {
	if c.Schedule.Spec == "" {
		c.Schedule.Spec = DefaultSchedule
	}
	if c.Catalog.Timeout == "" {
		c.Catalog.Timeout = DefaultCatalogTimeout
	}
	if c.Snapshot.Driver == "" {
		c.Snapshot.Driver = "file"
	}
	if c.Snapshot.Path == "" {
		switch c.Snapshot.Driver {
		case "sqlite", "sqlite3":
			c.Snapshot.Path = DefaultSQLitePath
		default:
			c.Snapshot.Path = DefaultSnapshotPath
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
