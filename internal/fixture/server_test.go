package fixture

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestTodosLimit(t *testing.T) {
	h := Handler(nil, nil)

	rec := get(t, h, "/todos?_limit=3")

	require.Equal(t, http.StatusOK, rec.Code)
	var items []types.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.Equal(t, int64(1), items[0].ID)
}

func TestTodosWithoutLimitReturnsAll(t *testing.T) {
	rec := get(t, Handler(nil, nil), "/todos")

	var items []types.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, len(DemoItems()))
}

func TestTodosFail(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"fail=503", http.StatusServiceUnavailable},
		{"fail=404", http.StatusNotFound},
		{"fail=abc", http.StatusInternalServerError},
		{"fail=200", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, get(t, Handler(nil, nil), "/todos?"+tt.query).Code)
		})
	}
}

func TestTodosBadParams(t *testing.T) {
	h := Handler(nil, nil)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/todos?_limit=-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/todos?delay=soon").Code)
}

func TestTodoByID(t *testing.T) {
	h := Handler([]types.Item{{ID: 7, Title: "seven"}}, nil)

	rec := get(t, h, "/todos/7")
	require.Equal(t, http.StatusOK, rec.Code)
	var it types.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &it))
	assert.Equal(t, "seven", it.Title)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/todos/8").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/todos/x").Code)
}

func TestHealthz(t *testing.T) {
	rec := get(t, Handler(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer("127.0.0.1:0", nil).Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = NewServer(ln.Addr().String(), nil).Run(context.Background())

	assert.Error(t, err)
}
