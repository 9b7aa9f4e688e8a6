package internal

import (
	"context"
	"gamewarden/internal/controllers"
	"gamewarden/internal/providers"
	"gamewarden/internal/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- minimal mocks for routes test ---

type routeTestLogger struct{}

func (m *routeTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *routeTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *routeTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *routeTestLogger) Close()                                                  {}

type routeTestCache struct{}

func (m *routeTestCache) Get(_ string) ([]byte, bool) { return nil, false }
func (m *routeTestCache) Set(_ string, _ []byte)      {}

type routeTestMockService struct{}

func (m *routeTestMockService) Servers(_ context.Context) ([]services.ServerStatus, error) {
	return []services.ServerStatus{}, nil
}
func (m *routeTestMockService) ServerCount() int   { return 0 }
func (m *routeTestMockService) RejectedCount() int { return 0 }

type routeTestScheduler struct{}

func (m *routeTestScheduler) Init()                                      {}
func (m *routeTestScheduler) Stop(_ context.Context) error               { return nil }
func (m *routeTestScheduler) RunOnce(_ context.Context)                  {}
func (m *routeTestScheduler) BackupNow(_ context.Context, _ string) error { return nil }

func newRouteTestController() *controllers.StatusController {
	return controllers.NewStatusController(&routeTestLogger{}, &routeTestMockService{}, &routeTestScheduler{}, &routeTestCache{})
}

func TestInitRoutes_RegistersRoutes(t *testing.T) {
	router := InitRoutes(newRouteTestController())
	routes := router.GetRoutes()

	require.Len(t, routes, 2)

	urls := make([]string, len(routes))
	for i, r := range routes {
		urls[i] = r.Url
	}

	assert.Contains(t, urls, "/status")
	assert.Contains(t, urls, "/backup")
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	router := InitRoutes(newRouteTestController())

	mux := router.Mux()

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/backup?server=mc", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
