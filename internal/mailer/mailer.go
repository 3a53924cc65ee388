package mailer

import (
	"fmt"
	"net/smtp"

	"go-event-ticketing/config"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// Sender 寄信介面；worker 只依賴這個
type Sender interface {
	Send(notification *model.Notification) error
}

type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) Sender {
	return &SMTPSender{cfg: cfg}
}

// renderMessage 依通知類型組出主旨與內文
func renderMessage(n *model.Notification) (string, string) {
	switch n.Type {
	case model.NotificationRegistered:
		if n.TicketID != "" {
			return fmt.Sprintf("Registration confirmed: %s", n.EventName),
				fmt.Sprintf("Hi %s,\n\nYour registration for \"%s\" is confirmed.\nTicket ID: %s\nPresent the attached QR code at check-in.", n.RecipientName, n.EventName, n.TicketID)
		}
		return fmt.Sprintf("Registration received: %s", n.EventName),
			fmt.Sprintf("Hi %s,\n\nYour registration for \"%s\" has been received.\nYour ticket will be issued once your payment is approved.", n.RecipientName, n.EventName)
	case model.NotificationPaymentApproved:
		return fmt.Sprintf("Payment approved: %s", n.EventName),
			fmt.Sprintf("Hi %s,\n\nYour payment for \"%s\" was approved.\nTicket ID: %s\nPresent the attached QR code at check-in.", n.RecipientName, n.EventName, n.TicketID)
	case model.NotificationPaymentRejected:
		return fmt.Sprintf("Payment rejected: %s", n.EventName),
			fmt.Sprintf("Hi %s,\n\nYour payment for \"%s\" was rejected.\nReason: %s\nPlease upload a new payment proof.", n.RecipientName, n.EventName, n.Reason)
	case model.NotificationCancelled:
		return fmt.Sprintf("Registration cancelled: %s", n.EventName),
			fmt.Sprintf("Hi %s,\n\nYour registration for \"%s\" has been cancelled.", n.RecipientName, n.EventName)
	}
	return fmt.Sprintf("Update: %s", n.EventName),
		fmt.Sprintf("Hi %s,\n\nThere is an update for \"%s\".", n.RecipientName, n.EventName)
}

func (s *SMTPSender) Send(n *model.Notification) error {
	log := logger.WithComponent("mailer")

	if s.cfg.Host == "" {
		// 未設定 SMTP：只記 log，寄信本來就是盡力而為的側信道
		log.Info("smtp not configured, skip sending",
			zap.String("type", string(n.Type)), zap.String("recipient", n.RecipientEmail))
		return nil
	}

	subject, body := renderMessage(n)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.From, n.RecipientEmail, subject, body,
	)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{n.RecipientEmail}, []byte(msg)); err != nil {
		log.Warn("send email failed", zap.String("recipient", n.RecipientEmail), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}

	log.Info("email sent", zap.String("recipient", n.RecipientEmail), zap.String("type", string(n.Type)))
	return nil
}
