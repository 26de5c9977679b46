package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// Notifier sends pipeline run notifications to an operations chat.
// Send-only: the bot never polls for updates.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewNotifier creates a send-only Telegram notifier
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if token == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram bot token is required")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}

	return &Notifier{
		api:    api,
		chatID: chatID,
		log:    logger.Get().With("component", "telegram_notifier"),
	}, nil
}

// NotifyRunCompleted reports a finished training run
func (n *Notifier) NotifyRunCompleted(runID string, ensembleF1, threshold float64, testRows int, elapsed time.Duration) error {
	text := fmt.Sprintf(
		"✅ TriGuard retrain complete\nrun: %s\nensemble OOF F1: %.5f\nthreshold: %.3f\ntest rows scored: %d\nelapsed: %s",
		runID, ensembleF1, threshold, testRows, elapsed.Round(time.Second),
	)
	return n.send(text)
}

// NotifyRunFailed reports a failed training run
func (n *Notifier) NotifyRunFailed(runID string, runErr error) error {
	text := fmt.Sprintf("❌ TriGuard retrain failed\nrun: %s\nerror: %v", runID, runErr)
	return n.send(text)
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.log.Errorf("Failed to send telegram notification: %v", err)
		return err
	}
	return nil
}
