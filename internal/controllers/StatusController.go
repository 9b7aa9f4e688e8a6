package controllers

import (
	"context"
	"gamewarden/internal/providers"
	"gamewarden/internal/services"
	"gamewarden/internal/watcher/interfaces"
	"net/http"

	json "github.com/goccy/go-json"
)

const statusCacheKey = "status"

type StatusController struct {
	logger    providers.Logger
	service   services.StatusServiceInterface
	scheduler interfaces.SchedulerInterface
	cache     providers.CacheProviderInterface
}

func NewStatusController(logger providers.Logger, service services.StatusServiceInterface, scheduler interfaces.SchedulerInterface, cache providers.CacheProviderInterface) *StatusController {
	return &StatusController{
		logger:    logger,
		service:   service,
		scheduler: scheduler,
		cache:     cache,
	}
}

func (sc *StatusController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := sc.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		sc.logger.Errorf(providers.TypeHTTP, "Status: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sc.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// Status lists roster, connection and backup state of every server.
func (sc *StatusController) Status(w http.ResponseWriter, r *http.Request) {
	sc.serveFromCacheOrCompute(w, statusCacheKey, func() (any, error) {
		return sc.service.Servers(r.Context())
	})
}

// TriggerBackup starts a forced backup of ?server= in the background.
func (sc *StatusController) TriggerBackup(w http.ResponseWriter, r *http.Request) {
	server := r.URL.Query().Get("server")
	if server == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	go func() {
		if err := sc.scheduler.BackupNow(context.Background(), server); err != nil {
			sc.logger.Errorf(providers.TypeHTTP, "Backup of %s: %s", server, err)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}
