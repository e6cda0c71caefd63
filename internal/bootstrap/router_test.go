package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
)

func newTestRouter(t *testing.T, origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	studio := service.NewStudio(store.NewMemoryStore(), catalog.Default())
	t.Cleanup(studio.Close)
	return BuildRouter(RouterDeps{
		ServiceName:    "archstudio",
		Version:        "test",
		AllowedOrigins: origins,
		RateRPS:        100,
		RateBurst:      100,
		Studio:         studio,
	})
}

func TestBuildRouter(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"disabled"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/studio/history", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, "device id required")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/studio/history", nil)
	req.Header.Set("X-Device-Id", "phone-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuildRouter_CORS(t *testing.T) {
	r := newTestRouter(t, []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/studio/current", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "X-Device-Id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
