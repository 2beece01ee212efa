package main

import (
	_ "github.com/KarpovAlexandrGo/todo-service/docs" // Swagger (сгенерировано swag)
	"github.com/KarpovAlexandrGo/todo-service/internal/app"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
)

// @title           Todo Service API
// @version         1.0
// @description     Сервис списка дел: задачи, категории, фильтры.

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /

func main() {
	a, err := app.NewApp()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize app")
	}

	if err := a.Run(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to run app")
	}
}
