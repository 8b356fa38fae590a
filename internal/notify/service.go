package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"embyscan/internal/config"
)

// Service defines the notification surface exposed to daemon components.
type Service interface {
	NotifyScanTriggered(ctx context.Context, created, modified, deleted int) error
	NotifyTriggerFailed(ctx context.Context, cause error, pending int) error
	NotifyError(ctx context.Context, cause error, contextLabel string) error
	NotifyLibraryEvent(ctx context.Context, event LibraryEvent) error
	TestNotification(ctx context.Context) error
}

// NewService builds a Telegram-backed notification service. When no bot
// token or no chat IDs are configured, a noop implementation is
// returned.
func NewService(cfg *config.Config) Service {
	token := strings.TrimSpace(cfg.Telegram.BotToken)
	if token == "" || (len(cfg.Telegram.AdminChatIDs) == 0 && len(cfg.Telegram.UserChatIDs) == 0) {
		return noopService{}
	}
	return newTelegramService(cfg)
}

type noopService struct{}

func (noopService) NotifyScanTriggered(context.Context, int, int, int) error { return nil }
func (noopService) NotifyTriggerFailed(context.Context, error, int) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error         { return nil }
func (noopService) NotifyLibraryEvent(context.Context, LibraryEvent) error   { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }

func formatScanTriggered(created, modified, deleted int) string {
	parts := make([]string, 0, 3)
	if created > 0 {
		parts = append(parts, fmt.Sprintf("%d added", created))
	}
	if modified > 0 {
		parts = append(parts, fmt.Sprintf("%d changed", modified))
	}
	if deleted > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", deleted))
	}
	if len(parts) == 0 {
		parts = append(parts, "no changes")
	}
	return "🔍 Library scan triggered: " + strings.Join(parts, ", ")
}

func formatTriggerFailed(cause error, pending int) string {
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	return fmt.Sprintf("❌ Library scan failed, %d changes still queued: %s", pending, reason)
}

func formatError(cause error, contextLabel string) string {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return builder.String()
}

func formatTest() string {
	return fmt.Sprintf("🧪 Notification test at %s", time.Now().Format(time.RFC3339))
}
