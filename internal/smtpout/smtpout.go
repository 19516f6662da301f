// Package smtpout is the SMTP submission client shared by the remote
// provider's send path and the local provider's relay path.
package smtpout

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/provider"
)

const dialTimeout = 10 * time.Second

// Config describes one SMTP submission endpoint.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// UseTLS selects implicit TLS; otherwise the session is upgraded
	// with STARTTLS.
	UseTLS bool
}

// Addr returns the host:port address string.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Send authenticates against the relay and transmits a fully formed
// message envelope to the given recipients. Transport failures map to
// ErrConnection, rejected credentials to ErrAuth; neither is retried
// here — retry policy belongs to the caller.
func Send(cfg Config, from string, recipients []string, raw []byte) error {
	var c *smtp.Client
	var err error

	tlsConfig := &tls.Config{ServerName: cfg.Host}
	if cfg.UseTLS {
		c, err = smtp.DialTLS(cfg.Addr(), tlsConfig)
	} else {
		c, err = smtp.DialStartTLS(cfg.Addr(), tlsConfig)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	defer c.Close()

	if cfg.Username != "" {
		auth := sasl.NewPlainClient("", cfg.Username, cfg.Password)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("%w: %v", provider.ErrAuth, err)
		}
	}

	if err := c.SendMail(from, recipients, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	return c.Quit()
}

// BuildMessage renders a draft into an RFC 5322 message with the given
// sender, using multipart alternative parts when an HTML body is present
// and attaching any draft attachments.
func BuildMessage(from string, d mail.Draft) ([]byte, error) {
	var h gomail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*gomail.Address{{Address: from}})
	h.SetAddressList("To", toAddressList(d.To))
	if len(d.Cc) > 0 {
		h.SetAddressList("Cc", toAddressList(d.Cc))
	}
	h.SetSubject(d.Subject)

	var buf bytes.Buffer
	mw, err := gomail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	var th gomail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	pw, err := tw.CreatePart(th)
	if err != nil {
		return nil, err
	}
	io.WriteString(pw, d.Body)
	pw.Close()

	if d.HTMLBody != "" {
		var hh gomail.InlineHeader
		hh.Set("Content-Type", "text/html; charset=utf-8")
		hw, err := tw.CreatePart(hh)
		if err != nil {
			return nil, err
		}
		io.WriteString(hw, d.HTMLBody)
		hw.Close()
	}
	tw.Close()

	for _, att := range d.Attachments {
		var ah gomail.AttachmentHeader
		ah.SetFilename(att.Filename)
		if att.ContentType != "" {
			ah.Set("Content-Type", att.ContentType)
		}
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, err
		}
		if _, err := aw.Write(att.Content); err != nil {
			aw.Close()
			return nil, err
		}
		aw.Close()
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toAddressList(addrs []string) []*gomail.Address {
	out := make([]*gomail.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, &gomail.Address{Address: a})
	}
	return out
}
