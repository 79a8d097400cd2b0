package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"veristream/internal/core/domain"
	"veristream/internal/core/services"
	"veristream/internal/infrastructure/middleware"
	"veristream/internal/infrastructure/registry"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRouter() (*gin.Engine, *registry.MemoryRoomRegistry) {
	gin.SetMode(gin.TestMode)

	reg := registry.NewMemoryRoomRegistry(10, nil, zap.NewNop().Sugar()).(*registry.MemoryRoomRegistry)
	scorer := services.NewHeuristicScorer(2 * time.Second)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))

	api := router.Group("/api")
	NewRoomHandler(reg, scorer).SetupRoutes(api)
	NewDetectHandler(scorer).SetupRoutes(api)

	return router, reg
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var m map[string]interface{}
	if w.Body.Len() > 0 {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	}
	return w, m
}

func TestGetRoomInfoUnknown(t *testing.T) {
	router, _ := newTestRouter()

	w, body := doJSON(t, router, http.MethodGet, "/api/room/standup", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["exists"])
	assert.Equal(t, float64(0), body["participantCount"])
	assert.Equal(t, float64(10), body["maxParticipants"])
}

func TestGetRoomInfoExisting(t *testing.T) {
	router, reg := newTestRouter()
	s := domain.NewSession("aaaa0001", "conn-1", 8)
	_, err := reg.Join(context.Background(), "standup", s)
	assert.NoError(t, err)

	w, body := doJSON(t, router, http.MethodGet, "/api/room/standup", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, float64(1), body["participantCount"])
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter()

	w, body := doJSON(t, router, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "entropy-heuristic", body["model"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestDetectFrameMissingBody(t *testing.T) {
	router, _ := newTestRouter()

	w, _ := doJSON(t, router, http.MethodPost, "/api/detect", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetectFrameUndecodable(t *testing.T) {
	router, _ := newTestRouter()

	w, body := doJSON(t, router, http.MethodPost, "/api/detect", `{"frame":"not-base64!!"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", body["error"])
}

func TestDetectFrameNoContent(t *testing.T) {
	router, _ := newTestRouter()
	frame := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})

	w, body := doJSON(t, router, http.MethodPost, "/api/detect", `{"frame":"`+frame+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["is_fake"])
	assert.Equal(t, false, body["face_detected"])
	assert.Equal(t, float64(0), body["confidence"])
}

func TestDetectFrameHighEntropy(t *testing.T) {
	router, _ := newTestRouter()
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	frame := base64.StdEncoding.EncodeToString(payload)

	w, body := doJSON(t, router, http.MethodPost, "/api/detect", `{"frame":"`+frame+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["is_fake"])
	assert.Equal(t, 0.99, body["confidence"])
	assert.Equal(t, true, body["face_detected"])
}

func TestDetectAudio(t *testing.T) {
	router, _ := newTestRouter()
	payload := make([]byte, 32)
	for i := range payload {
		payload[i] = 0x41
	}
	audio := base64.StdEncoding.EncodeToString(payload)

	w, body := doJSON(t, router, http.MethodPost, "/api/detect/audio", `{"audio":"`+audio+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["is_fake"])
	assert.NotContains(t, body, "face_detected")
}
