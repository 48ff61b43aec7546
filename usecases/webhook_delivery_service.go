package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/acme/product-importer/models"
)

const (
	defaultWebhookTimeout = 5 * time.Second
	maxWebhookTimeout     = 10 * time.Second
	maxBodySnippetBytes   = 2048
)

// WebhookDeliveryService posts event payloads to registered endpoints. One
// attempt per dispatch, no retries: callers decide what a failed delivery
// means for them.
type WebhookDeliveryService struct {
	httpClient *http.Client
	timeout    time.Duration
}

func NewWebhookDeliveryService(timeout time.Duration) WebhookDeliveryService {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if timeout > maxWebhookTimeout {
		timeout = maxWebhookTimeout
	}
	return WebhookDeliveryService{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Dispatch POSTs the payload as JSON to the webhook's url. Transport-level
// failures (dns, refused connection, timeout) are returned as errors; any
// HTTP response, success or not, is returned as a result with a bounded
// snippet of the body for diagnostics.
func (s WebhookDeliveryService) Dispatch(
	ctx context.Context,
	webhook models.Webhook,
	payload any,
) (models.DispatchResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.DispatchResult{}, errors.Wrap(err, "error marshalling webhook payload")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.Url, bytes.NewReader(body))
	if err != nil {
		return models.DispatchResult{}, errors.Wrap(err, "error building webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.DispatchResult{}, errors.Mark(
			errors.Wrapf(err, "error delivering webhook to %s", webhook.Url),
			models.TransportError)
	}
	defer resp.Body.Close()

	snippet, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippetBytes))
	if err != nil {
		snippet = nil
	}

	return models.DispatchResult{
		StatusCode:  resp.StatusCode,
		BodySnippet: string(snippet),
	}, nil
}
