package agentrunner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/pkg/agentworker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokePostsPayload(t *testing.T) {
	var got atomic.Value
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload invokePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		got.Store(payload)
		close(done)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	pool := agentworker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	runner := NewRunner(server.URL, pool)
	runner.Invoke("pattern-detector", "u1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not called")
	}

	payload := got.Load().(invokePayload)
	assert.Equal(t, "pattern-detector", payload.AgentID)
	assert.Equal(t, "u1", payload.UserID)
}

func TestInvokeWithoutURLIsNoop(t *testing.T) {
	pool := agentworker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	runner := NewRunner("", pool)
	// Must not panic or dispatch anything.
	runner.Invoke("pattern-detector", "u1")

	assert.Equal(t, int64(0), pool.GetStats().TotalDispatched)
}

func TestPostRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	runner := NewRunner(server.URL, nil)
	err := runner.post(context.Background(), "a", "u")
	assert.ErrorContains(t, err, "500")
}
