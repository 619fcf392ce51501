package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/crosstalk-io/crosstalk/internal/logging"
)

// Watch re-loads the configuration whenever viper's config file changes and
// delivers the new tunables snapshot to onChange. An edit that fails
// validation is logged and ignored — the running conversation keeps its last
// good values. Structural fields never reach the callback; only the
// probability subset is live.
func Watch(log *logging.Logger, onChange func(Tunables)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load()
		if err != nil {
			log.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		log.Info("config reloaded", "file", e.Name)
		onChange(cfg.Tunables())
	})
	viper.WatchConfig()
}
