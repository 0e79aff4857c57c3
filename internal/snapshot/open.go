package snapshot

import (
	"errors"
	"strings"

	logx "storewatch/pkg/logx"
)

// DefaultPath matches the cache file name the bot has always used.
const DefaultPath = "cached_items.json"

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = DefaultPath
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file", "json":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown snapshot driver: " + driver)
	}
}
