package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// WebhookNotifier posts batch stage failures to an operator webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *log.Logger
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string, logger *log.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// NotifyStageFailure posts a stage failure. Delivery errors are logged and
// swallowed so notification never affects a batch outcome.
func (n *WebhookNotifier) NotifyStageFailure(ctx context.Context, batchID, stage, message string) {
	if n == nil {
		return
	}
	if err := n.post(ctx, batchID, stage, message); err != nil {
		if n.logger != nil {
			n.logger.Printf("webhook notifier: %v", err)
		}
	}
}

func (n *WebhookNotifier) post(ctx context.Context, batchID, stage, message string) error {
	if n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatStageFailure(batchID, stage, message)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook notifier: non-2xx")
	}
	return nil
}

func formatStageFailure(batchID, stage, message string) string {
	var b strings.Builder
	b.WriteString("[Settlement Alert]\n")
	if batchID != "" {
		fmt.Fprintf(&b, "Batch: %s\n", batchID)
	}
	if stage != "" {
		fmt.Fprintf(&b, "Stage: %s\n", stage)
	}
	if message != "" {
		fmt.Fprintf(&b, "Detail: %s\n", message)
	}
	return strings.TrimSpace(b.String())
}
