package config

import (
	"reflect"
	"strings"

	logx "storewatch/pkg/logx"
)

// Change describes what a reload touched.
type Change struct {
	// Sections that differ, in config order.
	Sections []string
	// Live lists sections that take effect without a restart.
	Live []string
	// RestartRequired lists sections whose new values are ignored until restart.
	RestartRequired []string
	// Fields are safe to log; secrets are reduced to "set"/"unset".
	Fields []logx.Field
}

func (c Change) Empty() bool { return len(c.Sections) == 0 }

// SummarizeChange compares two configs section by section.
func SummarizeChange(oldCfg, newCfg *Config) Change {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch Change
	mark := func(section string, live bool, fields ...logx.Field) {
		ch.Sections = append(ch.Sections, section)
		if live {
			ch.Live = append(ch.Live, section)
		} else {
			ch.RestartRequired = append(ch.RestartRequired, section)
		}
		ch.Fields = append(ch.Fields, fields...)
	}

	// never log the token
	if !reflect.DeepEqual(oldCfg.Telegram, newCfg.Telegram) {
		mark("telegram", false,
			logx.Bool("telegram.token_set", strings.TrimSpace(newCfg.Telegram.Token) != ""),
			logx.String("telegram.chat", newCfg.Telegram.Chat),
		)
	}
	if !reflect.DeepEqual(oldCfg.Catalog, newCfg.Catalog) {
		mark("catalog", false, logx.String("catalog.url", newCfg.Catalog.URL))
	}
	if oldCfg.Snapshot != newCfg.Snapshot {
		mark("snapshot", false,
			logx.String("snapshot.driver", newCfg.Snapshot.Driver),
			logx.String("snapshot.path", newCfg.Snapshot.Path),
		)
	}
	if oldCfg.ScheduleEnabled() != newCfg.ScheduleEnabled() ||
		oldCfg.Schedule.Spec != newCfg.Schedule.Spec ||
		oldCfg.Schedule.Timezone != newCfg.Schedule.Timezone ||
		oldCfg.Schedule.Timeout != newCfg.Schedule.Timeout ||
		oldCfg.RunOnStart() != newCfg.RunOnStart() {
		mark("schedule", true,
			logx.Bool("schedule.enabled", newCfg.ScheduleEnabled()),
			logx.String("schedule.spec", newCfg.Schedule.Spec),
			logx.String("schedule.timezone", newCfg.Schedule.Timezone),
		)
	}
	if oldCfg.NotifierEnabled() != newCfg.NotifierEnabled() ||
		oldCfg.Notifier.RatePerSec != newCfg.Notifier.RatePerSec ||
		oldCfg.Notifier.SendTimeout != newCfg.Notifier.SendTimeout ||
		oldCfg.Notifier.HistorySize != newCfg.Notifier.HistorySize {
		mark("notifier", true,
			logx.Bool("notifier.enabled", newCfg.NotifierEnabled()),
			logx.Int("notifier.rate_per_sec", newCfg.Notifier.RatePerSec),
		)
	}
	if oldCfg.Logging != newCfg.Logging {
		mark("logging", true,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}
	return ch
}
