package telegram

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
	"github.com/selivandex/portfolio-digest/pkg/templates"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// maxListedFailures caps the failure list in one summary message
const maxListedFailures = 10

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier reports digest runs to an operator chat
type Notifier struct {
	api             botAPI
	chatID          int64
	templateManager templates.Renderer

	mu       sync.Mutex
	failures []models.DeliveryEntry
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
		zap.Int64("chat_id", cfg.ChatID),
	)

	return newNotifier(bot, cfg.ChatID)
}

func newNotifier(api botAPI, chatID int64) (*Notifier, error) {
	tm, err := templates.NewManagerFS(embedded, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	if err := tm.Require("run_summary.tmpl", "run_failed.tmpl"); err != nil {
		return nil, err
	}

	return &Notifier{
		api:             api,
		chatID:          chatID,
		templateManager: tm,
	}, nil
}

// OnDelivery remembers failed sends for the run summary
func (n *Notifier) OnDelivery(_ context.Context, entry models.DeliveryEntry) {
	if entry.Status != models.StatusFailed {
		return
	}

	n.mu.Lock()
	n.failures = append(n.failures, entry)
	n.mu.Unlock()
}

// OnRunComplete posts the run summary
func (n *Notifier) OnRunComplete(_ context.Context, stats models.RunStats, duration time.Duration) {
	n.mu.Lock()
	failures := n.failures
	n.failures = nil
	n.mu.Unlock()

	more := 0
	if len(failures) > maxListedFailures {
		more = len(failures) - maxListedFailures
		failures = failures[:maxListedFailures]
	}

	emoji := "✅"
	if stats.HasErrors() {
		emoji = "⚠️"
	}

	data := map[string]interface{}{
		"Emoji":        emoji,
		"Stats":        stats,
		"Failures":     failures,
		"MoreFailures": more,
		"Duration":     duration.Round(time.Millisecond),
	}

	msg, err := n.templateManager.ExecuteTemplate("run_summary.tmpl", data)
	if err != nil {
		logger.Warn("failed to render run summary", zap.Error(err))
		return
	}

	_ = n.sendMessageMarkdown(msg)
}

// NotifyRunFailed reports a run that could not start or finish
func (n *Notifier) NotifyRunFailed(_ context.Context, runErr error) error {
	msg, err := n.templateManager.ExecuteTemplate("run_failed.tmpl", map[string]interface{}{
		"Error": escapeMarkdown(runErr.Error()),
	})
	if err != nil {
		return err
	}
	return n.sendMessageMarkdown(msg)
}

func (n *Notifier) sendMessageMarkdown(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := n.api.Send(msg)
	if err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
