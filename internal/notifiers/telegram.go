package notifiers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/awylder/deskwatch/internal/config"
	"github.com/awylder/deskwatch/pkg/models"
)

const telegramAPI = "https://api.telegram.org"

// Telegram sends notifications via Telegram Bot API
type Telegram struct {
	api    string // overridden in tests
	token  string
	chatID string
	client *http.Client
}

func NewTelegram(cfg config.TelegramConfig) *Telegram {
	return &Telegram{
		api:    telegramAPI,
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
		client: &http.Client{},
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(event models.Event) error {
	msg := t.formatEvent(event)
	return t.send(msg)
}

func (t *Telegram) SendRaw(message string) error {
	return t.send(message)
}

func (t *Telegram) Test() error {
	return t.send("🖥️ <b>deskwatch</b> — Test notification\n\nIf you see this, deskwatch is connected!")
}

func (t *Telegram) send(text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.api, t.token)

	// url.Values escapes the payload, so app names and filenames with
	// special characters cannot corrupt the request.
	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("parse_mode", "HTML")
	data.Set("text", text)

	resp, err := t.client.PostForm(apiURL, data)
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

func (t *Telegram) formatEvent(event models.Event) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>deskwatch — %s</b>\n\n", event.Severity.Emoji(), event.Hostname))
	b.WriteString(fmt.Sprintf("<b>%s</b>\n", event.Message))

	if event.Details != "" {
		b.WriteString(fmt.Sprintf("%s\n", event.Details))
	}

	return b.String()
}
