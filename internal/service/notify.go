package service

import (
	"context"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// publishNotification 寄信是盡力而為的側信道：發佈失敗只記 log，絕不讓主流程失敗
func publishNotification(ctx context.Context, q queue.NotificationQueue, n *model.Notification) {
	if q == nil {
		return
	}
	if err := q.PublishNotification(ctx, n); err != nil {
		logger.WithComponent("service").Warn("publish notification failed",
			zap.String("type", string(n.Type)),
			zap.String("recipient", n.RecipientEmail),
			zap.Error(err))
	}
}
