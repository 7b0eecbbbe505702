package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leavehub/internal/domain/application"
)

// SlackRelay posts approval updates to the configured incoming webhook.
// The webhook owner drives retries; this client sends once.
type SlackRelay struct {
	webhookURL string
	client     *http.Client
}

func NewSlackRelay(webhookURL string) *SlackRelay {
	return &SlackRelay{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type relayPayload struct {
	LeaveApplication application.Application `json:"leaveApplication"`
	IsApprovalUpdate bool                    `json:"isApprovalUpdate"`
	SendToUser       bool                    `json:"sendToUser"`
}

func (r *SlackRelay) Send(ctx context.Context, app application.Application) error {
	body, err := json.Marshal(relayPayload{
		LeaveApplication: app,
		IsApprovalUpdate: true,
		SendToUser:       true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopRelay stands in when no webhook target is configured.
type NoopRelay struct{}

func (NoopRelay) Send(ctx context.Context, app application.Application) error {
	return nil
}
