// ABOUTME: Notification channels for monitor alerts and heartbeats.
// ABOUTME: Telegram Bot API implementation plus a console fallback.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// chunkSize keeps messages under the Telegram 4096-char ceiling.
const chunkSize = 4000

// Notifier delivers monitor output. Alerts are urgent and never
// suppressed; heartbeats are periodic summaries.
type Notifier interface {
	Alert(ctx context.Context, message string) error
	Heartbeat(ctx context.Context, message string) error
}

// Telegram sends messages through the Bot API to two chats: one for
// alerts, one for heartbeats.
type Telegram struct {
	Token           string
	AlertChatID     string
	HeartbeatChatID string

	// BaseURL overrides the API endpoint for tests.
	BaseURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

func (t *Telegram) Alert(ctx context.Context, message string) error {
	return t.send(ctx, t.AlertChatID, message)
}

func (t *Telegram) Heartbeat(ctx context.Context, message string) error {
	return t.send(ctx, t.HeartbeatChatID, message)
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) send(ctx context.Context, chatID, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}

	for _, chunk := range Chunk(message, chunkSize) {
		if err := t.sendOne(ctx, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Telegram) sendOne(ctx context.Context, chatID, text string) error {
	base := t.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed sendMessageResponse
	if err := json.Unmarshal(data, &parsed); err != nil || !parsed.OK {
		return fmt.Errorf("telegram API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// Chunk splits a message into pieces of at most size bytes, never
// cutting inside a multi-byte rune; the Telegram API rejects invalid
// UTF-8.
func Chunk(message string, size int) []string {
	if size <= 0 {
		return []string{message}
	}
	var chunks []string
	for len(message) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, message[:cut])
		message = message[cut:]
	}
	if len(message) > 0 {
		chunks = append(chunks, message)
	}
	return chunks
}

// Console writes notifications to an io.Writer, used for dry runs.
type Console struct {
	Out io.Writer
}

func (c *Console) Alert(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	_, err := fmt.Fprintf(c.Out, "ALERT: %s\n", message)
	return err
}

func (c *Console) Heartbeat(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	_, err := fmt.Fprintf(c.Out, "HEARTBEAT: %s\n", message)
	return err
}
