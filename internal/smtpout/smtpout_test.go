package smtpout

import (
	"bytes"
	"io"
	"strings"
	"testing"

	gomail "github.com/emersion/go-message/mail"

	"github.com/Engineernoob/Term-Mail/internal/mail"
)

func TestConfigAddr(t *testing.T) {
	cfg := Config{Host: "smtp.example.com", Port: 587}
	if got := cfg.Addr(); got != "smtp.example.com:587" {
		t.Fatalf("unexpected addr %q", got)
	}
}

func TestBuildMessageRoundTrip(t *testing.T) {
	raw, err := BuildMessage("ann@example.com", mail.Draft{
		To:       []string{"bob@example.com"},
		Cc:       []string{"carol@example.com"},
		Bcc:      []string{"dave@example.com"},
		Subject:  "greetings",
		Body:     "plain text body",
		HTMLBody: "<p>html body</p>",
		Attachments: []mail.DraftAttachment{
			{Filename: "notes.txt", ContentType: "text/plain", Content: []byte("attached notes")},
		},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("built message does not parse: %v", err)
	}

	subject, err := mr.Header.Subject()
	if err != nil || subject != "greetings" {
		t.Errorf("unexpected subject %q (err %v)", subject, err)
	}
	from, err := mr.Header.AddressList("From")
	if err != nil || len(from) != 1 || from[0].Address != "ann@example.com" {
		t.Errorf("unexpected from %v (err %v)", from, err)
	}
	to, err := mr.Header.AddressList("To")
	if err != nil || len(to) != 1 || to[0].Address != "bob@example.com" {
		t.Errorf("unexpected to %v (err %v)", to, err)
	}
	cc, err := mr.Header.AddressList("Cc")
	if err != nil || len(cc) != 1 || cc[0].Address != "carol@example.com" {
		t.Errorf("unexpected cc %v (err %v)", cc, err)
	}
	// Blind copies travel on the envelope only, never in the headers.
	if mr.Header.Has("Bcc") || bytes.Contains(raw, []byte("dave@example.com")) {
		t.Error("blind copy recipient leaked into the message")
	}

	var sawPlain, sawHTML, sawAttachment bool
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("part read failed: %v", err)
		}
		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			ct, _, _ := h.ContentType()
			body, _ := io.ReadAll(part.Body)
			switch ct {
			case "text/plain":
				sawPlain = true
				if !strings.Contains(string(body), "plain text body") {
					t.Errorf("plain part missing body: %q", body)
				}
			case "text/html":
				sawHTML = true
				if !strings.Contains(string(body), "<p>html body</p>") {
					t.Errorf("html part missing body: %q", body)
				}
			}
		case *gomail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename != "notes.txt" {
				t.Errorf("unexpected attachment filename %q", filename)
			}
			body, _ := io.ReadAll(part.Body)
			if string(body) != "attached notes" {
				t.Errorf("unexpected attachment content %q", body)
			}
			sawAttachment = true
		}
	}

	if !sawPlain || !sawHTML || !sawAttachment {
		t.Fatalf("missing parts: plain=%v html=%v attachment=%v", sawPlain, sawHTML, sawAttachment)
	}
}

func TestBuildMessagePlainOnly(t *testing.T) {
	raw, err := BuildMessage("ann@example.com", mail.Draft{
		To:      []string{"bob@example.com"},
		Subject: "just text",
		Body:    "nothing fancy",
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("built message does not parse: %v", err)
	}

	part, err := mr.NextPart()
	if err != nil {
		t.Fatalf("expected one part: %v", err)
	}
	if _, ok := part.Header.(*gomail.InlineHeader); !ok {
		t.Fatalf("expected inline part, got %T", part.Header)
	}
	body, _ := io.ReadAll(part.Body)
	if !strings.Contains(string(body), "nothing fancy") {
		t.Errorf("body missing: %q", body)
	}
}
