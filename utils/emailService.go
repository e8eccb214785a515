package utils

import (
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"

	"hrms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailContent struct {
	Subject string
	HTML    string
}

// Mailer sends one HTML email.
type Mailer interface {
	Send(to []string, content EmailContent) error
}

// NewMailer picks the provider configured in EMAIL_PROVIDER
func NewMailer(cfg *config.Config) Mailer {
	if strings.EqualFold(cfg.EmailProvider, "sendgrid") {
		return &SendGridMailer{APIKey: cfg.SendGridAPIKey, From: cfg.EmailSender}
	}
	return &SMTPMailer{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.EmailSender, Password: cfg.Password}
}

// SMTPMailer sends through a plain-auth SMTP relay
type SMTPMailer struct {
	Host     string
	Port     string
	From     string
	Password string
}

func (m *SMTPMailer) Send(to []string, content EmailContent) error {
	if m.From == "" {
		return fmt.Errorf("email sender not configured")
	}

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: HR Onboarding <%s>\r\n", m.From)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", content.Subject)
	msg += content.HTML

	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, to, []byte(msg)); err != nil {
		log.Printf("[EMAIL] Error sending %q to %v: %v", content.Subject, to, err)
		return err
	}
	log.Printf("[EMAIL] %q sent to %v", content.Subject, to)
	return nil
}

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	APIKey string
	From   string
}

func (m *SendGridMailer) Send(to []string, content EmailContent) error {
	if m.APIKey == "" {
		return fmt.Errorf("sendgrid api key not configured")
	}
	client := sendgrid.NewSendClient(m.APIKey)
	from := mail.NewEmail("HR Onboarding", m.From)

	for _, addr := range to {
		message := mail.NewSingleEmail(from, content.Subject, mail.NewEmail("", addr), "", content.HTML)
		resp, err := client.Send(message)
		if err != nil {
			log.Printf("[EMAIL] SendGrid error for %s: %v", addr, err)
			return err
		}
		if resp.StatusCode >= 300 {
			log.Printf("[EMAIL] SendGrid rejected %s: %d %s", addr, resp.StatusCode, resp.Body)
			return fmt.Errorf("sendgrid status %d", resp.StatusCode)
		}
	}
	log.Printf("[EMAIL] %q sent to %v via SendGrid", content.Subject, to)
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #7A1F1F; padding: 24px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 22px; }
			.content { padding: 32px 28px; color: #222222; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 16px; text-align: center; font-size: 12px; color: #666666; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #E0A526; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; }
			.info-box { background: #FFF7E6; padding: 15px; border-radius: 4px; border-left: 4px solid #E0A526; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>PEOPLE &amp; ONBOARDING</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">This is an automated message from the HR onboarding system.</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

var esc = html.EscapeString

func OTPEmail(otp string) EmailContent {
	body := fmt.Sprintf(`
		<p>Your one time password is:</p>
		<h1 style="text-align: center; letter-spacing: 6px;">%s</h1>
		<p>It expires in 5 minutes. Do not share it with anyone.</p>
	`, esc(otp))
	return EmailContent{Subject: "Your verification code", HTML: getEmailTemplate("Verify your email", body)}
}

func ApprovalRequestEmail(coachName, candidateName, outletName, roleTitle, link string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p><strong>%s</strong> has applied for <strong>%s</strong> at <strong>%s</strong>.</p>
		<p>Review the application and approve or reject it:</p>
		<p><a class="btn" href="%s">Review application</a></p>
		<p style="font-size: 12px; color: #666666;">The link can be used once and expires automatically.</p>
	`, esc(coachName), esc(candidateName), esc(roleTitle), esc(outletName), esc(link))
	return EmailContent{Subject: "Approval needed: " + candidateName, HTML: getEmailTemplate("New application to review", body)}
}

func ApplicationApprovedEmail(name, employeeKey, outletName, roleTitle string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! Your application for <strong>%s</strong> at <strong>%s</strong> has been approved.</p>
		<div class="info-box"><strong>Employee ID:</strong> %s</div>
		<p>Your training account will be shared with you shortly.</p>
	`, esc(name), esc(roleTitle), esc(outletName), esc(employeeKey))
	return EmailContent{Subject: "Welcome aboard!", HTML: getEmailTemplate("Application approved", body)}
}

func ApplicationRejectedEmail(name, reason string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Thank you for your interest. We are unable to take your application forward at this time.</p>
		<div class="info-box"><strong>Reason:</strong> %s</div>
	`, esc(name), esc(reason))
	return EmailContent{Subject: "Update on your application", HTML: getEmailTemplate("Application status", body)}
}

func DeactivationRequestEmail(coachName, employeeName, outletName, reason string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>The manager of <strong>%s</strong> has requested deactivation of <strong>%s</strong>.</p>
		<div class="info-box"><strong>Reason:</strong> %s</div>
		<p>Please approve or reject the request from your dashboard.</p>
	`, esc(coachName), esc(outletName), esc(employeeName), esc(reason))
	return EmailContent{Subject: "Deactivation request: " + employeeName, HTML: getEmailTemplate("Deactivation requested", body)}
}

func DeactivationDecisionEmail(employeeName string, approved bool, note string) EmailContent {
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	body := fmt.Sprintf(`
		<p>The deactivation request for <strong>%s</strong> was <strong>%s</strong>.</p>
	`, esc(employeeName), decision)
	if note != "" {
		body += fmt.Sprintf(`<div class="info-box">%s</div>`, esc(note))
	}
	return EmailContent{Subject: "Deactivation request " + decision, HTML: getEmailTemplate("Deactivation update", body)}
}

func EmploymentEndedEmail(name, outcome, reason string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your employment status has been changed to <strong>%s</strong>.</p>
	`, esc(name), esc(outcome))
	if reason != "" {
		body += fmt.Sprintf(`<div class="info-box"><strong>Reason:</strong> %s</div>`, esc(reason))
	}
	return EmailContent{Subject: "Employment status update", HTML: getEmailTemplate("Employment update", body)}
}

func RehiredEmail(name, outletName string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Welcome back! You have been reinstated at <strong>%s</strong>.</p>
	`, esc(name), esc(outletName))
	return EmailContent{Subject: "Welcome back", HTML: getEmailTemplate("You have been rehired", body)}
}

func ApplicationReceivedEmail(name, outletName string) EmailContent {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We have received your application for <strong>%s</strong>. We will let you know once it has been reviewed.</p>
	`, esc(name), esc(outletName))
	return EmailContent{Subject: "Application received", HTML: getEmailTemplate("Thank you for applying", body)}
}
