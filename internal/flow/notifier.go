package flow

import (
	"github.com/rs/zerolog"

	"stars-shop-backend/internal/common/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier receives the transient user-facing notifications of the flow:
// the toast popups of the browser storefront.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier renders notifications through the structured log.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.With("notify")}
}

func (n *LogNotifier) Notify(level Level, message string) {
	if level == LevelError {
		n.log.Error().Msg(message)
		return
	}
	n.log.Info().Msg(message)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}
