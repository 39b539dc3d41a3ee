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

// Telegram pushes notifications to a chat via the bot API, with up to three
// delivery attempts per message.
type Telegram struct {
	BotToken string
	ChatID   string
	Client   *http.Client
}

var _ Channel = (*Telegram)(nil)

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{BotToken: botToken, ChatID: chatID, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (t *Telegram) Name() string    { return "telegram" }
func (t *Telegram) Connected() bool { return t != nil && t.BotToken != "" && t.ChatID != "" }

func (t *Telegram) SendText(text string) error {
	if !t.Connected() {
		return fmt.Errorf("telegram configuration incomplete")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload := map[string]any{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	var lastErr error
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if resp.StatusCode/100 == 2 && gjson.GetBytes(respBody, "ok").Bool() {
			return nil
		}
		desc := gjson.GetBytes(respBody, "description").String()
		if desc == "" {
			desc = fmt.Sprintf("status=%d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("telegram: %s", desc)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return lastErr
}

func (t *Telegram) sendStructured(msg StructuredMessage) error {
	return t.SendText(msg.RenderMarkdown())
}

func (t *Telegram) SendSignal(sig strategy.Signal) error { return t.sendStructured(signalMessage(sig)) }
func (t *Telegram) SendOrderPlaced(ev OrderEvent) error {
	return t.sendStructured(orderPlacedMessage(ev))
}
func (t *Telegram) SendOrderFailed(ev OrderEvent) error {
	return t.sendStructured(orderFailedMessage(ev))
}
func (t *Telegram) SendPositionClosed(ev PositionClosedEvent) error {
	return t.sendStructured(positionClosedMessage(ev))
}
func (t *Telegram) SendScanSummary(sum ScanSummary) error {
	return t.sendStructured(scanSummaryMessage(sum))
}
func (t *Telegram) SendError(msg string) error {
	return t.sendStructured(StructuredMessage{Icon: "⚠️", Title: "Error", Sections: []MessageSection{{Lines: []string{msg}}}, Timestamp: time.Now().UTC()})
}
