package app

import (
	"time"

	"storewatch/internal/catalog"
	"storewatch/internal/config"
	"storewatch/internal/notifier"
	"storewatch/internal/schedule"
	"storewatch/internal/snapshot"
	kit "storewatch/internal/transport"
	telegram "storewatch/internal/transport/telegram/adapter"
	logx "storewatch/pkg/logx"
)

// The mappers below expect a config that already passed config.Validate,
// so duration fields parse cleanly.

func mapLogging(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func catalogKeys(cfg *config.Config) catalog.Keys {
	return catalog.Keys{ID: cfg.Catalog.IDField, Name: cfg.Catalog.NameField}
}

func mapCatalog(cfg *config.Config) catalog.Config {
	return catalog.Config{
		URL:          cfg.Catalog.URL,
		Timeout:      config.Duration(cfg.Catalog.Timeout),
		UserAgent:    cfg.Catalog.UserAgent,
		Headers:      cfg.Catalog.Headers,
		Keys:         catalogKeys(cfg),
		MaxBodyBytes: cfg.Catalog.MaxBodyBytes,
	}
}

func mapSnapshot(cfg *config.Config) snapshot.Config {
	busy := config.Duration(cfg.Snapshot.BusyTimeout)
	if busy <= 0 {
		busy = time.Second
	}
	return snapshot.Config{
		Driver:      cfg.Snapshot.Driver,
		Path:        cfg.Snapshot.Path,
		BusyTimeout: busy,
		Keys:        catalogKeys(cfg),
	}
}

func mapTelegram(cfg *config.Config) telegram.Config {
	return telegram.Config{
		Token:   cfg.Telegram.Token,
		URL:     cfg.Telegram.APIURL,
		Timeout: config.Duration(cfg.Telegram.Timeout),
	}
}

func mapNotifier(cfg *config.Config, target kit.ChatTarget) notifier.Config {
	return notifier.Config{
		Enabled:     cfg.NotifierEnabled(),
		Target:      target,
		RatePerSec:  cfg.Notifier.RatePerSec,
		SendTimeout: config.Duration(cfg.Notifier.SendTimeout),
		HistorySize: cfg.Notifier.HistorySize,
	}
}

func mapSchedule(cfg *config.Config) schedule.Config {
	return schedule.Config{
		Enabled:    cfg.ScheduleEnabled(),
		Spec:       cfg.Schedule.Spec,
		Timezone:   cfg.Schedule.Timezone,
		RunOnStart: cfg.RunOnStart(),
		Timeout:    config.Duration(cfg.Schedule.Timeout),
	}
}
