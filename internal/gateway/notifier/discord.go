package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"perpscan/internal/strategy"
)

// Discord delivers notifications through a channel webhook.
type Discord struct {
	WebhookURL string
	Client     *http.Client
}

var _ Channel = (*Discord)(nil)

func NewDiscord(webhookURL string) *Discord {
	return &Discord{WebhookURL: webhookURL, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (d *Discord) Name() string    { return "discord" }
func (d *Discord) Connected() bool { return d != nil && d.WebhookURL != "" }

func (d *Discord) sendContent(content string) error {
	if !d.Connected() {
		return fmt.Errorf("discord configuration incomplete")
	}
	payload := map[string]any{"content": content}
	body, _ := json.Marshal(payload)

	var lastErr error
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodPost, d.WebhookURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.Client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		// Webhooks answer 204 on success; error payloads carry code+message.
		if resp.StatusCode/100 == 2 {
			return nil
		}
		msg := gjson.GetBytes(respBody, "message").String()
		if msg == "" {
			msg = fmt.Sprintf("status=%d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("discord: %s", msg)
		if resp.StatusCode == http.StatusTooManyRequests {
			if retry := gjson.GetBytes(respBody, "retry_after").Float(); retry > 0 {
				time.Sleep(time.Duration(retry * float64(time.Second)))
				continue
			}
		}
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}

func (d *Discord) sendStructured(msg StructuredMessage) error {
	return d.sendContent(msg.RenderMarkdown())
}

func (d *Discord) SendSignal(sig strategy.Signal) error { return d.sendStructured(signalMessage(sig)) }
func (d *Discord) SendOrderPlaced(ev OrderEvent) error {
	return d.sendStructured(orderPlacedMessage(ev))
}
func (d *Discord) SendOrderFailed(ev OrderEvent) error {
	return d.sendStructured(orderFailedMessage(ev))
}
func (d *Discord) SendPositionClosed(ev PositionClosedEvent) error {
	return d.sendStructured(positionClosedMessage(ev))
}
func (d *Discord) SendScanSummary(sum ScanSummary) error {
	return d.sendStructured(scanSummaryMessage(sum))
}
func (d *Discord) SendError(msg string) error {
	return d.sendStructured(StructuredMessage{Icon: "⚠️", Title: "Error", Sections: []MessageSection{{Lines: []string{msg}}}, Timestamp: time.Now().UTC()})
}
