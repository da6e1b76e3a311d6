// backend/src/services/email_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/models"
	"github.com/username/easysplit/backend/src/processors"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

func settlementSubject(tripName string) string {
	return fmt.Sprintf("Settlement for %s", tripName)
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) SendSettlementReport(toEmails []string, tripName string, report models.SettlementReport) error {
	from := s.SenderEmail
	subject := settlementSubject(tripName)
	body := processors.RenderReportText(report)

	header := make(map[string]string)
	header["From"] = from
	header["To"] = strings.Join(toEmails, ", ")
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	err := smtp.SendMail(addr, auth, from, toEmails, []byte(message))
	if err != nil {
		logger.L.Error("Failed to send settlement report via SMTP", "error", err, "to", toEmails)
		return fmt.Errorf("failed to send settlement report via SMTP: %w", err)
	}
	logger.L.Info("Settlement report sent successfully via SMTP", "to", toEmails, "trip", tripName)
	return nil
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendSettlementReport(toEmails []string, tripName string, report models.SettlementReport) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := settlementSubject(tripName)

	plainTextBody := processors.RenderReportText(report)
	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			%s
			<p>Sent by EasySplit.</p>
		</body>
	</html>`, processors.RenderReportHTML(report))

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmails...)
	message.SetHtml(htmlBody)
	message.AddTag("settlement-report")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send settlement report via Mailgun", "error", err, "to", toEmails, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Settlement report sent successfully via Mailgun", "to", toEmails, "id", id, "mailgunResp", resp)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendSettlementReport(toEmails []string, tripName string, report models.SettlementReport) error {
	logger.L.Info("MockEmailService: Would send settlement report.",
		"to", toEmails,
		"trip", tripName,
		"transfers", len(report.Transfers),
		"baseCurrency", report.BaseCurrency)
	return nil
}
