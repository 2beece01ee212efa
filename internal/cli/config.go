package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/board"
	"github.com/KarpovAlexandrGo/todo-service/internal/reminder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config настройки CLI: флаги, затем переменные TODO_*, затем значения по умолчанию.
type Config struct {
	APIURL         string
	Timeout        time.Duration
	Output         string
	RemindInterval time.Duration
	SearchDebounce time.Duration
}

func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api-url", "http://localhost:8080")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("output", formatTable)
	v.SetDefault("remind-interval", reminder.DefaultInterval)
	v.SetDefault("search-debounce", board.DefaultDebounce)

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	cfg := Config{
		APIURL:         v.GetString("api-url"),
		Timeout:        v.GetDuration("timeout"),
		Output:         strings.ToLower(v.GetString("output")),
		RemindInterval: v.GetDuration("remind-interval"),
		SearchDebounce: v.GetDuration("search-debounce"),
	}
	switch cfg.Output {
	case formatTable, formatJSON, formatYAML:
	default:
		return Config{}, fmt.Errorf("unknown output format %q (want table, json or yaml)", cfg.Output)
	}
	return cfg, nil
}
