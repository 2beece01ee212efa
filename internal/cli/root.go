// Package cli консольный клиент todo поверх HTTP API.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/board"
	"github.com/KarpovAlexandrGo/todo-service/internal/client"
	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/KarpovAlexandrGo/todo-service/internal/reminder"
	"github.com/spf13/cobra"
)

var Version = "dev"

// API операции сервера, нужные командам.
type API interface {
	board.TaskAPI
	GetTask(ctx context.Context, id string) (entity.Task, error)
}

// deps внешние зависимости команд; в тестах подменяются.
type deps struct {
	newAPI   func(cfg Config) API
	notifier func(cmd *cobra.Command) reminder.Notifier
	now      func() time.Time
}

func defaultDeps() deps {
	return deps{
		newAPI: func(cfg Config) API {
			return client.New(cfg.APIURL, cfg.Timeout)
		},
		notifier: func(cmd *cobra.Command) reminder.Notifier {
			return newTerminalNotifier(cmd.OutOrStdout())
		},
		now: time.Now,
	}
}

// NewRootCommand собирает дерево команд todo.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultDeps())
}

func newRootCommand(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Command-line client for the todo service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("api-url", "http://localhost:8080", "todo service base URL (TODO_API_URL)")
	root.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout (TODO_TIMEOUT)")
	root.PersistentFlags().StringP("output", "o", formatTable, "output format: table, json or yaml")

	root.AddCommand(
		listCmd(d),
		showCmd(d),
		addCmd(d),
		updateCmd(d),
		doneCmd(d),
		toggleCmd(d),
		rmCmd(d),
		categoriesCmd(d),
		statsCmd(d),
		searchCmd(d),
		remindCmd(d),
	)
	return root
}

// session конфигурация и клиент одной команды.
type session struct {
	cfg Config
	api API
	out printer
}

func (d deps) session(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg: cfg,
		api: d.newAPI(cfg),
		out: printer{out: cmd.OutOrStdout(), format: cfg.Output},
	}, nil
}

// userError ошибка для вывода пользователю одной строкой.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(client.Message(err))
}
