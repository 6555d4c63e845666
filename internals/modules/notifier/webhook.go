package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"pulsemon/config"
	"pulsemon/internals/modules/monitor"
	"pulsemon/pkg/httpclient"

	"github.com/rs/zerolog"
)

// WebhookNotifier issues one outbound POST per transition. Fire and
// forget: timeouts, connection errors and non-2xx responses are logged
// and swallowed, never retried, never surfaced to the caller.
type WebhookNotifier struct {
	client *http.Client
	logger *zerolog.Logger
}

func NewWebhookNotifier(notifierCfg *config.NotifierConfig, logger *zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client: httpclient.NewHttpClient(time.Duration(notifierCfg.TimeoutSec) * time.Second),
		logger: logger,
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, snap monitor.Snapshot) {
	body, err := json.Marshal(snap)
	if err != nil {
		n.logger.Error().Err(err).Str("slug", snap.Slug).Msg("failed to marshal webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, snap.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error().Err(err).Str("slug", snap.Slug).Msg("failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn().Err(err).Str("slug", snap.Slug).Msg("webhook delivery failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn().
			Int("status", resp.StatusCode).
			Str("slug", snap.Slug).
			Msg("webhook returned non-2xx status")
		return
	}

	n.logger.Debug().Str("slug", snap.Slug).Msg("webhook delivered")
}
