package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// EmailService sends transactional mail through SendGrid
type EmailService struct {
	apiKey     string
	from       *sgmail.Email
	subjPrefix string
}

// EmailMessage is a rendered mail ready to send
type EmailMessage struct {
	ToName      string
	ToAddress   string
	Subject     string
	TextContent string
	HTMLContent string
}

// NewEmailService creates a new email service. An empty apiKey disables
// delivery; messages are logged instead.
func NewEmailService(apiKey, fromEmail string) *EmailService {
	return &EmailService{
		apiKey:     apiKey,
		from:       sgmail.NewEmail("Educa", fromEmail),
		subjPrefix: "[Educa] ",
	}
}

// IsConfigured checks if SendGrid is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.apiKey != ""
}

// SendEnrollmentConfirmation tells a student they joined a course
func (e *EmailService) SendEnrollmentConfirmation(ctx context.Context, user *model.User, course *model.Course) error {
	return e.Send(ctx, BuildEnrollmentEmail(user, course))
}

// BuildEnrollmentEmail renders the enrollment confirmation
func BuildEnrollmentEmail(user *model.User, course *model.Course) EmailMessage {
	name := user.Name
	if name == "" {
		name = "Student"
	}

	text := fmt.Sprintf("Hi %s,\n\nYou are now enrolled in \"%s\". Open your courses page to start the first module.\n",
		name, course.Title)
	body := fmt.Sprintf("<p>Hi %s,</p><p>You are now enrolled in <strong>%s</strong>. Open your courses page to start the first module.</p>",
		html.EscapeString(name), html.EscapeString(course.Title))

	return EmailMessage{
		ToName:      user.Name,
		ToAddress:   user.Email,
		Subject:     fmt.Sprintf("You enrolled in %s", course.Title),
		TextContent: text,
		HTMLContent: body,
	}
}

// Send delivers msg, or logs it when SendGrid is not configured
func (e *EmailService) Send(ctx context.Context, msg EmailMessage) error {
	if !e.IsConfigured() {
		log.Printf("SendGrid not configured. Mail to %s: %s", msg.ToAddress, msg.Subject)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(e.apiKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(e.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected mail with status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (e *EmailService) prepare(msg EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = e.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	m := sgmail.NewV3Mail()
	m.SetFrom(e.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)
	return m
}
