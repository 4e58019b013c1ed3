package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/callcore/campaign-engine/internal/queue"
)

const defaultWebhookTimeout = 10 * time.Second

type webhookPayload struct {
	CampaignID     string `json:"campaignId"`
	ContactID      string `json:"contactId"`
	CallerID       string `json:"callerId"`
	Status         string `json:"status"`
	Satisfaction   int    `json:"satisfaction"`
	DurationMillis int64  `json:"durationMillis"`
	OptOut         bool   `json:"optOut"`
	OccurredAt     string `json:"occurredAt"`
}

// CRMWebhook pushes recorded call outcomes to an external CRM endpoint.
type CRMWebhook struct {
	client   *resty.Client
	endpoint string
}

func NewCRMWebhook(endpoint string) (*CRMWebhook, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewCRMWebhookWithClient(endpoint, client)
}

func NewCRMWebhookWithClient(endpoint string, client *resty.Client) (*CRMWebhook, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &CRMWebhook{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (w *CRMWebhook) Push(ctx context.Context, event queue.OutcomeMessage) (*DeliveryResponse, error) {
	if w == nil || w.client == nil {
		return nil, fmt.Errorf("webhook is not initialized")
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outcome event: %w", err)
	}

	payload := webhookPayload{
		CampaignID:     event.CampaignID,
		ContactID:      event.ContactID,
		CallerID:       event.CallerID,
		Status:         event.Status.String(),
		Satisfaction:   event.Satisfaction,
		DurationMillis: event.DurationMillis,
		OptOut:         event.OptOut,
		OccurredAt:     event.OccurredAt.UTC().Format(time.RFC3339),
	}

	response, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Correlation-ID", event.CorrelationID).
		SetBody(payload).
		Post(w.endpoint)
	if err != nil {
		return nil, &Error{
			Message:   "webhook request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &Error{
			Message:   "webhook returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &DeliveryResponse{
			StatusCode: statusCode,
			Body:       responseBody,
			ReceiptID:  deliveryReceiptID(response),
		}, nil
	}

	return nil, &Error{
		StatusCode: statusCode,
		Message:    webhookErrorMessage(statusCode, responseBody),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func webhookErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("webhook returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func deliveryReceiptID(response *resty.Response) string {
	if response == nil {
		return ""
	}

	for _, key := range []string{"X-Receipt-ID", "X-Receipt-Id", "X-Request-ID", "X-Request-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}
