package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minsukang/dalligo-backend/internal/boards"
	"github.com/minsukang/dalligo-backend/internal/chat"
	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/internal/notifications"
	"github.com/minsukang/dalligo-backend/internal/postings"
	"github.com/minsukang/dalligo-backend/internal/requests"
	"github.com/minsukang/dalligo-backend/internal/reviews"
	"github.com/minsukang/dalligo-backend/pkg/db"
	"github.com/minsukang/dalligo-backend/pkg/db/models"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	silent := gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent})
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent, SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.ShopperPosting{},
		&models.PostingItem{},
		&models.PostingImage{},
		&models.RunnerPosting{},
		&models.ShopperRequest{},
		&models.RunnerRequest{},
		&models.UserReview{},
		&models.UserReviewComment{},
		&models.Notification{},
		&models.Board{},
		&models.ChatRoom{},
		&models.ChatMessage{},
	))

	client := db.NewFromGorm(conn)
	postingRepo := postings.NewRepository(conn)
	requestRepo := requests.NewRepository(conn)
	notificationSvc := notifications.NewService(notifications.NewRepository(conn), nil)
	reviewSvc := reviews.NewService(conn, nil)
	engine := matching.NewEngine(client, postingRepo, requestRepo, reviewSvc, notificationSvc, nil, nil)
	postingSvc := postings.NewService(postingRepo, requestRepo, nil, 30*time.Minute, nil)

	handler := NewRouter(Deps{
		DB:            client,
		Postings:      postingSvc,
		Engine:        engine,
		Notifications: notificationSvc,
		Reviews:       reviewSvc,
		Boards:        boards.NewService(conn),
		Chat:          chat.NewService(conn),
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, userID int64, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set("X-User-Id", fmt.Sprintf("%d", userID))
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestMatchingFlowOverHTTP(t *testing.T) {
	srv := setupServer(t)

	// Shopper 1 opens a posting.
	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/postings/shopper/", 1, map[string]any{
		"title":            "grocery run",
		"contents":         "full list attached",
		"startReceiveTime": "18:00",
		"endReceiveTime":   "20:00",
		"receiveAddress":   "5 Hill Rd",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postingID := int64(body["data"].(map[string]any)["ID"].(float64))

	// Runner 2 bids.
	resp, body = doJSON(t, srv, http.MethodPost, "/api/v1/requests/shopper/", 2, map[string]any{
		"postingId": postingID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	requestID := int64(body["data"].(map[string]any)["requestId"].(float64))

	// A stranger cannot accept it.
	resp, body = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/v1/requests/shopper/%d/accept", requestID), 9, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_OWNER", body["error"].(map[string]any)["code"])

	// The owner accepts.
	resp, _ = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/v1/requests/shopper/%d/accept", requestID), 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Match state shows the accepted request.
	resp, body = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/v1/postings/shopper/%d/match", postingID), 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := body["data"].(map[string]any)
	assert.Equal(t, "MATCHED", state["PostingStatus"])
	require.NotNil(t, state["Request"])

	// Delivery steps alternate actors.
	for _, step := range []struct {
		actor  int64
		target string
	}{
		{2, "DELIVERED_REQUEST"},
		{1, "DELIVERED"},
		{2, "REVIEW_REQUEST"},
	} {
		resp, _ = doJSON(t, srv, http.MethodPost,
			fmt.Sprintf("/api/v1/requests/shopper/%d/delivery", requestID), step.actor,
			map[string]any{"target": step.target})
		require.Equal(t, http.StatusOK, resp.StatusCode, "step %s", step.target)
	}

	// Shopper reviews; the match completes.
	resp, _ = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/v1/requests/shopper/%d/review", requestID), 1,
		map[string]any{"rating": 5, "contents": "great runner"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The runner has notifications from the flow.
	resp, body = doJSON(t, srv, http.MethodGet, "/api/v1/notifications/", 2, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Greater(t, data["unreadCount"].(float64), float64(0))
}

func TestDoubleAcceptConflictOverHTTP(t *testing.T) {
	srv := setupServer(t)

	_, body := doJSON(t, srv, http.MethodPost, "/api/v1/postings/shopper/", 1, map[string]any{
		"title":            "one item",
		"contents":         "usb cable",
		"startReceiveTime": "10:00",
		"endReceiveTime":   "12:00",
		"receiveAddress":   "1 Dock St",
	})
	postingID := int64(body["data"].(map[string]any)["ID"].(float64))

	_, body = doJSON(t, srv, http.MethodPost, "/api/v1/requests/shopper/", 2, map[string]any{"postingId": postingID})
	reqA := int64(body["data"].(map[string]any)["requestId"].(float64))
	_, body = doJSON(t, srv, http.MethodPost, "/api/v1/requests/shopper/", 3, map[string]any{"postingId": postingID})
	reqB := int64(body["data"].(map[string]any)["requestId"].(float64))

	resp, _ := doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/v1/requests/shopper/%d/accept", reqA), 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The second accept finds the posting already matched.
	resp, body = doJSON(t, srv, http.MethodPost,
		fmt.Sprintf("/api/v1/requests/shopper/%d/accept", reqB), 1, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_MATCHED", body["error"].(map[string]any)["code"])
}

func TestHealthzOverHTTP(t *testing.T) {
	srv := setupServer(t)

	resp, body := doJSON(t, srv, http.MethodGet, "/healthz", 0, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["data"].(map[string]any)["status"])
}
