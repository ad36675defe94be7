// utils/email.go
package utils

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-storefront/config"
	"go-storefront/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailMessage is one outgoing email.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers email. Delivery is best-effort for every caller.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// PostmarkMailer sends through the Postmark API.
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(serverToken, ""), from: from}
}

func (m *PostmarkMailer) Send(_ context.Context, msg EmailMessage) error {
	res, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("postmark: %d %s", res.ErrorCode, res.Message)
	}
	return nil
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from, fromName string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), from: mail.NewEmail(fromName, from)}
}

func (m *SendGridMailer) Send(_ context.Context, msg EmailMessage) error {
	message := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)
	res, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer prints messages instead of sending them. Used when no provider is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg EmailMessage) error {
	log.Printf("Email to %s, subject %q:\n%s", msg.To, msg.Subject, msg.Text)
	return nil
}

// NewMailer builds the transport selected by cfg.
func NewMailer(cfg config.Config) (Mailer, error) {
	switch cfg.MailProvider() {
	case "postmark":
		if cfg.Mail.PostmarkToken == "" {
			return nil, errors.New("POSTMARK_API_TOKEN is not set")
		}
		return NewPostmarkMailer(cfg.Mail.PostmarkToken, cfg.Mail.From), nil
	case "sendgrid":
		if cfg.Mail.SendGridKey == "" {
			return nil, errors.New("SENDGRID_API_KEY is not set")
		}
		return NewSendGridMailer(cfg.Mail.SendGridKey, cfg.Mail.From, cfg.Mail.FromName), nil
	case "log":
		return LogMailer{}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}

// EmailService composes the storefront's transactional emails
type EmailService struct {
	mailer   Mailer
	siteName string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(mailer Mailer, siteName string) *EmailService {
	return &EmailService{mailer: mailer, siteName: siteName}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(ctx context.Context, toEmail, subject, text, html string) error {
	if err := es.mailer.Send(ctx, EmailMessage{To: toEmail, Subject: subject, Text: text, HTML: html}); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(ctx context.Context, toEmail, link string) error {
	html, err := render(verificationTmpl, linkData{Site: es.siteName, Link: link})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Welcome to %s! Verify your email address: %s", es.siteName, link)
	return es.SendEmail(ctx, toEmail, "Email Verification - "+es.siteName, text, html)
}

// SendPasswordResetEmail sends a password reset link valid for ResetTokenTTL
func (es *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, link string) error {
	html, err := render(resetTmpl, linkData{Site: es.siteName, Link: link})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Reset your %s password: %s (expires in 10 minutes)", es.siteName, link)
	return es.SendEmail(ctx, toEmail, "Password Reset - "+es.siteName, text, html)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(ctx context.Context, toEmail string, order *models.Order) error {
	html, err := render(orderTmpl, newOrderData("Order placed successfully", order))
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order Placed Successfully - %s", ShortOrderID(order))
	return es.SendEmail(ctx, toEmail, subject, "Your order has been placed successfully.", html)
}

// SendOrderStatusEmail tells the user their order moved to a new status
func (es *EmailService) SendOrderStatusEmail(ctx context.Context, toEmail string, order *models.Order) error {
	title := "Order status updated to " + order.OrderStatus
	html, err := render(orderTmpl, newOrderData(title, order))
	if err != nil {
		return err
	}
	subject := "Your order status updated to " + order.OrderStatus
	return es.SendEmail(ctx, toEmail, subject, title, html)
}
