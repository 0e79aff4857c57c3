package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storewatch/internal/schedule"
)

// Validate returns the first problem found, prefixed with its dotted key.
// It expects ApplyDefaults to have run.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.NotifierEnabled() {
		if strings.TrimSpace(c.Telegram.Token) == "" {
			return errors.New("telegram.token: required (or set " + EnvPrefix + "TELEGRAM_TOKEN)")
		}
		if strings.TrimSpace(c.Telegram.Chat) == "" {
			return errors.New("telegram.chat: required (or set " + EnvPrefix + "TELEGRAM_CHAT)")
		}
	}
	if c.Telegram.ThreadID < 0 {
		return errors.New("telegram.thread_id: must be >= 0")
	}
	if _, err := ParseDurationField("telegram.timeout", c.Telegram.Timeout); err != nil {
		return err
	}
	if u := strings.TrimSpace(c.Telegram.APIURL); u != "" {
		if err := checkHTTPURL("telegram.api_url", u); err != nil {
			return err
		}
	}

	if strings.TrimSpace(c.Catalog.URL) == "" {
		return errors.New("catalog.url: required (or set " + EnvPrefix + "CATALOG_URL)")
	}
	if err := checkHTTPURL("catalog.url", c.Catalog.URL); err != nil {
		return err
	}
	if _, err := ParseDurationField("catalog.timeout", c.Catalog.Timeout); err != nil {
		return err
	}
	if c.Catalog.MaxBodyBytes < 0 {
		return errors.New("catalog.max_body_bytes: must be >= 0")
	}
	for k := range c.Catalog.Headers {
		if strings.TrimSpace(k) == "" {
			return errors.New("catalog.headers: empty header name")
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Snapshot.Driver)) {
	case "", "file", "json", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("snapshot.driver: unsupported %q (use file or sqlite)", c.Snapshot.Driver)
	}
	if _, err := ParseDurationField("snapshot.busy_timeout", c.Snapshot.BusyTimeout); err != nil {
		return err
	}

	if _, err := schedule.ParseSchedule(c.Schedule.Spec); err != nil {
		return fmt.Errorf("schedule.spec: %w", err)
	}
	if tz := strings.TrimSpace(c.Schedule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}
	if _, err := ParseDurationField("schedule.timeout", c.Schedule.Timeout); err != nil {
		return err
	}

	if c.Notifier.RatePerSec < 0 {
		return errors.New("notifier.rate_per_sec: must be >= 0")
	}
	if c.Notifier.HistorySize < 0 {
		return errors.New("notifier.history_size: must be >= 0")
	}
	if _, err := ParseDurationField("notifier.send_timeout", c.Notifier.SendTimeout); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}

func checkHTTPURL(path, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: want an absolute http(s) URL, got %q", path, raw)
	}
	return nil
}
