package internal

import (
	"gamewarden/internal/controllers"
	"gamewarden/internal/providers"
	"net/http"
)

func InitRoutes(statusController *controllers.StatusController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/status", http.HandlerFunc(statusController.Status))
	routers.Post("/backup", http.HandlerFunc(statusController.TriggerBackup))
	return routers
}
