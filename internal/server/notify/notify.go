// Package notify delivers account emails over SMTP.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"text/template"

	"github.com/dajohi/goemail"

	"github.com/dmitrijs2005/accounts/internal/logging"
	sc "github.com/dmitrijs2005/accounts/internal/server/config"
)

// VerifyPath is the route that consumes verification links.
const VerifyPath = "/api/v1/users/verify-email"

const verificationSubject = "Verify your email"

var verificationTmpl = template.Must(template.New("verification").Parse(`Hello,

Please confirm your email address by opening the link below:

{{.Link}}

The link expires in 24 hours. If you did not create an account you can ignore this message.
`))

type Sender interface {
	SendVerification(ctx context.Context, email, token string) error
}

// mailer is satisfied by *goemail.SMTP.
type mailer interface {
	Send(msg *goemail.Message) error
}

var newSMTP = func(rawURL string, tlsConfig *tls.Config) (mailer, error) {
	return goemail.NewSMTP(rawURL, tlsConfig)
}

// SMTPSender sends mail through an SMTPS relay. When host, user or password
// is empty it is disabled and only logs what it would have sent.
type SMTPSender struct {
	client      mailer
	mailName    string
	mailAddress string
	baseURL     string
	disabled    bool
	logger      logging.Logger
}

func NewSMTPSender(c *sc.Config, logger logging.Logger) (*SMTPSender, error) {
	s := &SMTPSender{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		logger:  logger.With("module", "notify"),
	}

	if c.SMTPHost == "" || c.SMTPUser == "" || c.SMTPPassword == "" {
		s.disabled = true
		s.logger.Info(context.Background(), "mail disabled")
		return s, nil
	}

	u := url.URL{
		Scheme: "smtps",
		User:   url.UserPassword(c.SMTPUser, c.SMTPPassword),
		Host:   c.SMTPHost,
	}

	a, err := mail.ParseAddress(c.MailFrom)
	if err != nil {
		return nil, fmt.Errorf("parse mail from: %w", err)
	}

	client, err := newSMTP(u.String(), &tls.Config{InsecureSkipVerify: c.SMTPSkipVerify})
	if err != nil {
		return nil, fmt.Errorf("smtp init: %w", err)
	}

	s.client = client
	s.mailName = a.Name
	s.mailAddress = a.Address
	s.logger.Info(context.Background(), "mail enabled", "host", c.SMTPHost, "from", a.Address)
	return s, nil
}

// VerificationLink builds the link embedded in verification emails.
func (s *SMTPSender) VerificationLink(token string) string {
	return s.baseURL + VerifyPath + "?token=" + url.QueryEscape(token)
}

func (s *SMTPSender) SendVerification(ctx context.Context, email, token string) error {
	var body bytes.Buffer
	if err := verificationTmpl.Execute(&body, struct{ Link string }{s.VerificationLink(token)}); err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}

	if s.disabled {
		s.logger.Info(ctx, "mail disabled, verification email not sent", "email", email)
		return nil
	}

	msg := goemail.NewMessage(s.mailAddress, verificationSubject, body.String())
	msg.AddTo(email)
	msg.SetName(s.mailName)

	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	s.logger.Debug(ctx, "verification email sent", "email", email)
	return nil
}
