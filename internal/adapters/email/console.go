package email

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// ConsoleSender logs messages instead of delivering them, for development
type ConsoleSender struct {
	now func() time.Time
}

// NewConsoleSender creates the development sender
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{now: time.Now}
}

func (c *ConsoleSender) GetName() string {
	return "console"
}

func (c *ConsoleSender) Send(_ context.Context, msg models.Message) models.SendResult {
	logger.Info("[DEV EMAIL]",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("html_preview", preview(msg.HTML, 500)),
	)
	return models.SendResult{Success: true, ID: fmt.Sprintf("dev-console-%d", c.now().UnixNano())}
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
