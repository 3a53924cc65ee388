package worker

import (
	"context"

	"go-event-ticketing/internal/mailer"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

type NotificationWorker interface {
	// 訂閱通知隊列
	Start(ctx context.Context) error
}

type NotificationWorkerImpl struct {
	sender mailer.Sender
	queue  queue.NotificationQueue
}

func NewNotificationWorker(sender mailer.Sender, queue queue.NotificationQueue) NotificationWorker {
	return &NotificationWorkerImpl{
		sender: sender,
		queue:  queue,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeNotifications(ctx)
	if err != nil {
		return err
	}

	go func() {
		log := logger.WithComponent("worker")
		for msg := range msgs {
			if err := w.sender.Send(msg.Data); err != nil {
				// SMTP 暫時掛掉就重試；毒藥消息由隊列層丟棄
				log.Warn("send notification failed, requeue",
					zap.String("recipient", msg.Data.RecipientEmail), zap.Error(err))
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
