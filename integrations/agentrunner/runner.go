package agentrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/pkg/agentworker"
	"github.com/sirupsen/logrus"
)

// invokeTimeout bounds one runner call. The engine never waits for it, but a
// hung connection should not pin a pool worker forever.
const invokeTimeout = 60 * time.Second

// Runner hands eligible agent invocations to an external runner service over
// HTTP, through the worker pool so the tick returns immediately. With no URL
// configured, invocations are logged and dropped, which keeps local
// development runnable without the runner deployed.
type Runner struct {
	url    string
	pool   *agentworker.Pool
	client *http.Client
}

func NewRunner(url string, pool *agentworker.Pool) *Runner {
	return &Runner{
		url:    url,
		pool:   pool,
		client: &http.Client{Timeout: invokeTimeout},
	}
}

type invokePayload struct {
	AgentID string `json:"agent_id"`
	UserID  string `json:"user_id"`
}

func (r *Runner) Invoke(agentID, userID string) {
	if r.url == "" {
		logrus.Infof("[AGENT] no runner url configured, would invoke %s for user %s", agentID, userID)
		return
	}

	r.pool.Dispatch(agentworker.Job{
		AgentID: agentID,
		UserID:  userID,
		Handler: func(ctx context.Context) error {
			return r.post(ctx, agentID, userID)
		},
	})
}

func (r *Runner) post(ctx context.Context, agentID, userID string) error {
	body, err := json.Marshal(invokePayload{AgentID: agentID, UserID: userID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("agent runner unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("agent runner returned %d for %s|%s", resp.StatusCode, agentID, userID)
	}

	logrus.Debugf("[AGENT] runner accepted %s for user %s", agentID, userID)
	return nil
}
