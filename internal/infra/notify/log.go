package notify

import (
	"rebirth/internal/domain/model"

	"context"

	"github.com/sirupsen/logrus"
)

// ブローカーがない環境用。ログに残すだけ。
type LogNotifier struct {
	logger logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderPlaced(ctx context.Context, ev model.OrderPlacedEvent) error {
	n.logger.WithFields(logrus.Fields{
		"event":     ev.Event,
		"order_id":  ev.OrderID,
		"recipient": ev.Recipient,
		"guest":     ev.Guest,
	}).Info("order placed")
	return nil
}

func (n *LogNotifier) Close() error { return nil }
