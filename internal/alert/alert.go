// Package alert forwards integrity events to an operator.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/codeshop/internal/domain"
)

type Poster interface {
	Post(ctx context.Context, url string, headers http.Header, body []byte) (statusCode int, respBody []byte, err error)
}

type Notifier struct {
	client     Poster
	webhookURL string
	now        func() time.Time
}

// New returns a Notifier that always logs and, when webhookURL is set, also posts alerts there.
func New(client Poster, webhookURL string) *Notifier {
	return &Notifier{
		client:     client,
		webhookURL: webhookURL,
		now:        time.Now,
	}
}

func (n *Notifier) Notify(ctx context.Context, a domain.Alert) {
	if a.At.IsZero() {
		a.At = n.now()
	}
	zap.L().Error("operator alert",
		zap.String("kind", string(a.Kind)),
		zap.Int64("account_id", a.AccountID),
		zap.String("sku", a.SKU),
		zap.String("message", a.Message))

	if n.webhookURL == "" {
		return
	}
	if err := n.deliver(ctx, a); err != nil {
		zap.L().Error("failed to deliver operator alert", zap.Error(err))
	}
}

func (n *Notifier) deliver(ctx context.Context, a domain.Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	status, _, err := n.client.Post(ctx, n.webhookURL, headers, body)
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded with status %d", status)
	}
	return nil
}
