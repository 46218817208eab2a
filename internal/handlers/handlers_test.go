package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/video-analytics-bot/internal/dsl"
)

type fakeStore struct {
	pingErr   error
	videos    int64
	snapshots int64
	countErr  error
}

func (f *fakeStore) Ping() error                         { return f.pingErr }
func (f *fakeStore) CountVideos() (int64, error)         { return f.videos, f.countErr }
func (f *fakeStore) CountVideoSnapshots() (int64, error) { return f.snapshots, f.countErr }

type fakeResolver struct {
	got string
	q   *dsl.QueryDSL
}

func (f *fakeResolver) Resolve(_ context.Context, text string) *dsl.QueryDSL {
	f.got = text
	return f.q
}

type fakeRunner struct {
	value int64
}

func (f *fakeRunner) Execute(_ *dsl.QueryDSL) int64 { return f.value }

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/api/stats", h.GetStats)
	r.POST("/api/query", h.Query)
	return r
}

func TestHealthzOK(t *testing.T) {
	h := NewHandler(&fakeStore{}, &fakeResolver{}, &fakeRunner{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealthzDBDown(t *testing.T) {
	h := NewHandler(&fakeStore{pingErr: errors.New("нет соединения")}, &fakeResolver{}, &fakeRunner{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetStats(t *testing.T) {
	h := NewHandler(&fakeStore{videos: 1500, snapshots: 30000}, &fakeResolver{}, &fakeRunner{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1500), body["videos"])
	assert.Equal(t, int64(30000), body["video_snapshots"])
}

func TestQuery(t *testing.T) {
	resolver := &fakeResolver{q: &dsl.QueryDSL{Aggregation: dsl.AggCountVideos}}
	h := NewHandler(&fakeStore{}, resolver, &fakeRunner{value: 77})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/query",
		strings.NewReader(`{"question": "Сколько всего видео?"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Сколько всего видео?", resolver.got)
	assert.Contains(t, w.Body.String(), `"answer":77`)
}

func TestQueryRequiresQuestion(t *testing.T) {
	h := NewHandler(&fakeStore{}, &fakeResolver{}, &fakeRunner{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/query", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
