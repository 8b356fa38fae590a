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

	"embyscan/internal/config"
)

const telegramUserAgent = "embyscan/0.1.0"

type telegramService struct {
	baseURL string
	token   string
	admins  []int64
	users   []int64
	client  *http.Client
}

func newTelegramService(cfg *config.Config) *telegramService {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Telegram.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &telegramService{
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.Telegram.BotToken),
		admins:  append([]int64(nil), cfg.Telegram.AdminChatIDs...),
		users:   append([]int64(nil), cfg.Telegram.UserChatIDs...),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *telegramService) NotifyScanTriggered(ctx context.Context, created, modified, deleted int) error {
	return t.broadcast(ctx, t.admins, formatScanTriggered(created, modified, deleted))
}

func (t *telegramService) NotifyTriggerFailed(ctx context.Context, cause error, pending int) error {
	return t.broadcast(ctx, t.admins, formatTriggerFailed(cause, pending))
}

func (t *telegramService) NotifyError(ctx context.Context, cause error, contextLabel string) error {
	return t.broadcast(ctx, t.admins, formatError(cause, contextLabel))
}

func (t *telegramService) NotifyLibraryEvent(ctx context.Context, event LibraryEvent) error {
	text := event.Format()
	if err := t.broadcast(ctx, t.admins, text); err != nil {
		return err
	}
	if event.UserVisible() {
		return t.broadcast(ctx, t.users, text)
	}
	return nil
}

func (t *telegramService) TestNotification(ctx context.Context) error {
	recipients := append(append([]int64(nil), t.admins...), t.users...)
	return t.broadcast(ctx, recipients, formatTest())
}

func (t *telegramService) broadcast(ctx context.Context, chatIDs []int64, text string) error {
	var firstErr error
	for _, chatID := range chatIDs {
		if err := t.sendMessage(ctx, chatID, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *telegramService) sendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", telegramUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("telegram responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
