// Package email contains the e-mail transports behind the EmailSender port.
package email

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/umig/internal/logging"
	"github.com/example/umig/internal/ports/secondary"
)

// LogSender writes messages to the log instead of delivering them.
// It is the default transport for local use.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logging.OrNop(logger)}
}

// Send logs the message envelope and subject.
func (s *LogSender) Send(ctx context.Context, msg secondary.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	s.logger.Info("e-mail (log transport)",
		zap.String("from", msg.From),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.BodyHTML)),
	)
	return nil
}

var _ secondary.EmailSender = (*LogSender)(nil)
