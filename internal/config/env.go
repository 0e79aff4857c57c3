package config

import (
	"os"
	"strings"
)

const EnvPrefix = "STOREWATCH_"

// envBindings maps environment variable suffixes to the field they override.
var envBindings = []struct {
	name string
	set  func(*Config, string)
}{
	{"TELEGRAM_TOKEN", func(c *Config, v string) { c.Telegram.Token = v }},
	{"TELEGRAM_CHAT", func(c *Config, v string) { c.Telegram.Chat = v }},
	{"CATALOG_URL", func(c *Config, v string) { c.Catalog.URL = v }},
	{"SNAPSHOT_PATH", func(c *Config, v string) { c.Snapshot.Path = v }},
	{"SNAPSHOT_DRIVER", func(c *Config, v string) { c.Snapshot.Driver = strings.ToLower(v) }},
	{"SCHEDULE", func(c *Config, v string) { c.Schedule.Spec = v }},
	{"LOG_LEVEL", func(c *Config, v string) { c.Logging.Level = v }},
}

// ApplyEnv overrides cfg with non-empty STOREWATCH_* variables and returns
// the names that were applied. Values are never returned, so tokens stay out
// of logs.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) []string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var applied []string
	for _, b := range envBindings {
		key := EnvPrefix + b.name
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b.set(cfg, strings.TrimSpace(v))
		applied = append(applied, key)
	}
	return applied
}
