package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KarpovAlexandrGo/todo-service/internal/cli"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Логи клиента только для предупреждений, вывод команд идет в stdout.
	logger.Log.SetOutput(os.Stderr)
	logger.Log.SetLevel(logrus.ErrorLevel)
	if lvl := os.Getenv("TODO_LOG_LEVEL"); lvl != "" {
		if err := logger.Init(lvl, "text"); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
