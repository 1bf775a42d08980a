package wagateway

import (
	"context"

	domainDelivery "github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/sirupsen/logrus"
)

// LogGateway prints messages instead of sending them. It is the default when
// no gateway URL is configured, so a fresh checkout ticks end to end.
type LogGateway struct{}

func NewLogGateway() *LogGateway {
	return &LogGateway{}
}

func (g *LogGateway) Channel() string {
	return "log"
}

func (g *LogGateway) Send(_ context.Context, userID, messageType, content string, priority domainDelivery.Priority) error {
	logrus.Infof("[GATEWAY] (log) %s/%s to user %s: %s",
		messageType, priority, userID, utils.TruncatePreview(content, 120))
	return nil
}

func (g *LogGateway) ProcessQueue(context.Context) (int, error) {
	return 0, nil
}
