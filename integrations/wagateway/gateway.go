package wagateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	domainUser "github.com/ganga90/olive-couple-sync-sub002/domains/user"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	httpTimeout = 15 * time.Second
	// flushBatch bounds one ProcessQueue pass.
	flushBatch = 50
)

// Config carries the WhatsApp REST gateway connection settings.
type Config struct {
	URL           string
	BasicAuth     string // "user:password"
	RatePerSecond int
	Burst         int
}

// Gateway delivers messages through an external WhatsApp HTTP API. Normal and
// high priority go out inline under a client-side rate limit; low priority is
// parked in the outbox and drained by ProcessQueue at the end of the tick.
type Gateway struct {
	cfg     Config
	users   domainUser.IUserRepository
	outbox  domainDelivery.IOutboxRepository
	client  *http.Client
	limiter *rate.Limiter
}

func New(cfg Config, users domainUser.IUserRepository, outbox domainDelivery.IOutboxRepository) *Gateway {
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = perSecond
	}
	return &Gateway{
		cfg:     cfg,
		users:   users,
		outbox:  outbox,
		client:  &http.Client{Timeout: httpTimeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (g *Gateway) Channel() string {
	return domainDelivery.ChannelWhatsApp
}

func (g *Gateway) Send(ctx context.Context, userID, messageType, content string, priority domainDelivery.Priority) error {
	owner, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if owner.Phone == "" {
		return fmt.Errorf("user %s has no phone number", userID)
	}

	if priority == domainDelivery.PriorityLow {
		return g.outbox.Enqueue(ctx, &domainDelivery.OutboundMessage{
			UserID:      userID,
			Phone:       owner.Phone,
			MessageType: messageType,
			Content:     content,
			Priority:    priority,
			Status:      domainDelivery.OutboundQueued,
		})
	}

	return g.post(ctx, owner.Phone, content)
}

// ProcessQueue drains queued outbound messages. A message that fails stays
// accounted in the outbox as failed; the notification log written at Send
// decision time remains the scheduling source of truth.
func (g *Gateway) ProcessQueue(ctx context.Context) (int, error) {
	batch, err := g.outbox.QueuedBatch(ctx, flushBatch)
	if err != nil {
		return 0, err
	}

	flushed := 0
	for _, msg := range batch {
		if err := g.post(ctx, msg.Phone, msg.Content); err != nil {
			logrus.WithError(err).Warnf("[GATEWAY] flush failed for message %s (user %s)", msg.ID, msg.UserID)
			if markErr := g.outbox.MarkFailed(ctx, msg.ID); markErr != nil {
				logrus.WithError(markErr).Errorf("[GATEWAY] could not mark message %s failed", msg.ID)
			}
			continue
		}
		if err := g.outbox.MarkSent(ctx, msg.ID, time.Now().UTC()); err != nil {
			logrus.WithError(err).Errorf("[GATEWAY] could not mark message %s sent", msg.ID)
			continue
		}
		flushed++
	}
	return flushed, nil
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (g *Gateway) post(ctx context.Context, phone, content string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(sendMessageRequest{
		Phone:   utils.NormalizePhone(phone),
		Message: content,
	})
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(g.cfg.URL, "/") + "/send/message"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.BasicAuth != "" {
		if user, pass, ok := strings.Cut(g.cfg.BasicAuth, ":"); ok {
			req.SetBasicAuth(user, pass)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return nil
}
