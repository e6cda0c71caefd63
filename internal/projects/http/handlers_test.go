package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/archstudio-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/delay"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/chat"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, opts ...service.StudioOption) *gin.Engine {
	t.Helper()
	opts = append([]service.StudioOption{service.WithResponder(chat.FixedResponder("applied"))}, opts...)
	studio := service.NewStudio(store.NewMemoryStore(), catalog.Default(), opts...)
	t.Cleanup(studio.Close)

	r := gin.New()
	rg := r.Group("/api/v1/studio")
	rg.Use(middleware.DeviceID())
	New(studio).Register(rg)
	return r
}

type envelope struct {
	OK         bool                   `json:"ok"`
	Error      string                 `json:"error"`
	RedirectTo string                 `json:"redirect_to"`
	Project    *domain.Project        `json:"project"`
	Projects   []domain.Project       `json:"projects"`
	Preview    *service.Snapshot      `json:"preview"`
	Export     *service.ExportReceipt `json:"export"`
}

func do(t *testing.T, r http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1/studio"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.DeviceIDHeader, "phone-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestMissingDeviceID(t *testing.T) {
	r := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/studio/current", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalog(t *testing.T) {
	r := setupRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/studio/catalog", nil)
	req.Header.Set(middleware.DeviceIDHeader, "phone-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sample_prompts")
	assert.NotContains(t, w.Body.String(), "replies")
}

func TestCreateProject(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/projects", gin.H{"type": "prompt", "content": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.OK)

	code, env = do(t, r, http.MethodPost, "/projects", gin.H{"type": "upload", "files": []string{"a.jpg"}})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, domain.StatusProcessing, env.Project.Status)

	code, env = do(t, r, http.MethodGet, "/current", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"a.jpg"}, env.Project.Files)
}

func TestNotFoundRedirects(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodGet, "/current", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "intake", env.RedirectTo)

	code, env = do(t, r, http.MethodGet, "/final", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "preview", env.RedirectTo)

	code, env = do(t, r, http.MethodPost, "/history/nope/open", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "history", env.RedirectTo)
}

func TestPreviewFlow_ManualClock(t *testing.T) {
	clock := delay.NewManualClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	r := setupRouter(t,
		service.WithClock(clock),
		service.WithTimings(service.Timings{Generation: 2 * time.Second, Response: time.Second, Finalize: time.Second}),
	)

	_, _ = do(t, r, http.MethodPost, "/projects", gin.H{"type": "prompt", "content": "A two-story brick house"})

	code, env := do(t, r, http.MethodPost, "/preview", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StateAwaitingGeneration, env.Preview.State)

	code, _ = do(t, r, http.MethodPost, "/preview/messages", gin.H{"message": "too early"})
	assert.Equal(t, http.StatusConflict, code)

	clock.Advance(2 * time.Second)

	code, env = do(t, r, http.MethodPost, "/preview/messages", gin.H{"message": "make the windows bigger"})
	require.Equal(t, http.StatusAccepted, code)
	assert.True(t, env.Preview.Pending)

	code, _ = do(t, r, http.MethodPost, "/preview/messages", gin.H{"message": "again"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, r, http.MethodPost, "/preview/messages", gin.H{"message": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	clock.Advance(time.Second)
	code, env = do(t, r, http.MethodGet, "/preview", nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, env.Preview.Pending)
	assert.Len(t, env.Preview.Messages, 3)

	code, env = do(t, r, http.MethodPost, "/preview/finish", nil)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, domain.StateFinalizing, env.Preview.State)

	clock.Advance(time.Second)

	code, env = do(t, r, http.MethodGet, "/final", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"make the windows bigger"}, env.Project.Modifications)

	code, env = do(t, r, http.MethodPost, "/final/exports/dwg", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "DWG", env.Export.Format)

	code, _ = do(t, r, http.MethodPost, "/final/exports/stl", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodPost, "/final/save", nil)
	require.Equal(t, http.StatusOK, code)
	id := env.Project.ID

	code, env = do(t, r, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Projects, 1)
	assert.Equal(t, id, env.Projects[0].ID)

	code, _ = do(t, r, http.MethodGet, "/final", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPreviewFlow_Wait(t *testing.T) {
	r := setupRouter(t, service.WithTimings(service.Timings{}))

	_, _ = do(t, r, http.MethodPost, "/projects", gin.H{"type": "prompt", "content": "a cabin"})

	code, env := do(t, r, http.MethodPost, "/preview?wait=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StateReadyForRevision, env.Preview.State)

	code, env = do(t, r, http.MethodPost, "/preview/messages?wait=true", gin.H{"message": "add a porch"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, env.Preview.Pending)

	code, env = do(t, r, http.MethodPost, "/preview/finish?wait=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"add a porch"}, env.Project.Modifications)
	assert.Equal(t, domain.StateFinalized, env.Preview.State)
}

func TestHistoryEndpoints(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, env.Projects, 3)

	code, env = do(t, r, http.MethodGet, "/history?status=completed", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, env.Projects, 2)

	code, _ = do(t, r, http.MethodGet, "/history?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodGet, "/history?q=commercial", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, env.Projects, 1)

	code, _ = do(t, r, http.MethodPost, "/history/demo-003/open", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, r, http.MethodPost, "/history/demo-001/open", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.ProjectID("demo-001"), env.Project.ID)

	for i := 0; i < 2; i++ {
		code, _ = do(t, r, http.MethodDelete, "/history/demo-002", nil)
		assert.Equal(t, http.StatusOK, code)
	}
	_, env = do(t, r, http.MethodGet, "/history", nil)
	assert.Len(t, env.Projects, 2)

	code, env = do(t, r, http.MethodPost, "/history/seed", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, env.Projects, 3)
}

func TestResetAndDemo(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/demo", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, domain.TypeDemo, env.Project.Type)

	code, _ = do(t, r, http.MethodPost, "/reset", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodPost, "/reset", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, r, http.MethodGet, "/current", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
