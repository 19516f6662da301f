package imapmail

import (
	"strings"
	"testing"

	"github.com/emersion/go-imap"

	"github.com/Engineernoob/Term-Mail/internal/mail"
)

func TestFormatAddress(t *testing.T) {
	cases := []struct {
		addr *imap.Address
		want string
	}{
		{&imap.Address{PersonalName: "Ann", MailboxName: "ann", HostName: "example.com"}, "Ann <ann@example.com>"},
		{&imap.Address{MailboxName: "bob", HostName: "example.com"}, "bob@example.com"},
	}
	for _, tc := range cases {
		if got := formatAddress(tc.addr); got != tc.want {
			t.Errorf("formatAddress(%+v) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}

func TestDecodeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain.pdf", "plain.pdf"},
		{"=?utf-8?B?cmVwb3J0LnBkZg==?=", "report.pdf"},
		{"=?utf-8?Q?caf=C3=A9.txt?=", "café.txt"},
	}
	for _, tc := range cases {
		if got := decodeFilename(tc.in); got != tc.want {
			t.Errorf("decodeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseRawMessagePlainText(t *testing.T) {
	raw := strings.Join([]string{
		"From: ann@example.com",
		"To: bob@example.com",
		"Subject: hello",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"just the body",
	}, "\r\n")

	var m mail.Message
	parseRawMessage(strings.NewReader(raw), &m)

	if m.Body != "just the body" {
		t.Errorf("unexpected body %q", m.Body)
	}
	if m.HTMLBody != "" {
		t.Errorf("unexpected html body %q", m.HTMLBody)
	}
}

func TestParseRawMessageMultipartAlternative(t *testing.T) {
	raw := strings.Join([]string{
		"From: ann@example.com",
		"Subject: hello",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=BOUNDARY",
		"",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain part",
		"--BOUNDARY",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html part</p>",
		"--BOUNDARY--",
		"",
	}, "\r\n")

	var m mail.Message
	parseRawMessage(strings.NewReader(raw), &m)

	if m.Body != "plain part" {
		t.Errorf("unexpected body %q", m.Body)
	}
	if m.HTMLBody != "<p>html part</p>" {
		t.Errorf("unexpected html body %q", m.HTMLBody)
	}
}

func TestParseRawMessageAttachment(t *testing.T) {
	raw := strings.Join([]string{
		"From: ann@example.com",
		"Subject: with attachment",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=BOUNDARY",
		"",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"see attached",
		"--BOUNDARY",
		"Content-Type: application/pdf; name=report.pdf",
		"Content-Disposition: attachment; filename=report.pdf",
		"",
		"%PDF-fake-content",
		"--BOUNDARY--",
		"",
	}, "\r\n")

	var m mail.Message
	parseRawMessage(strings.NewReader(raw), &m)

	if m.Body != "see attached" {
		t.Errorf("unexpected body %q", m.Body)
	}
	if len(m.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(m.Attachments))
	}
	att := m.Attachments[0]
	if att.Filename != "report.pdf" || att.ContentType != "application/pdf" {
		t.Errorf("unexpected attachment %+v", att)
	}
	if att.Size != int64(len("%PDF-fake-content")) {
		t.Errorf("unexpected attachment size %d", att.Size)
	}
}

func TestAttachmentMetaFromBodyStructure(t *testing.T) {
	bs := &imap.BodyStructure{
		MIMEType:    "multipart",
		MIMESubType: "mixed",
		Parts: []*imap.BodyStructure{
			{MIMEType: "text", MIMESubType: "plain"},
			{
				MIMEType:          "application",
				MIMESubType:       "zip",
				Disposition:       "attachment",
				DispositionParams: map[string]string{"filename": "bundle.zip"},
				Size:              2048,
			},
		},
	}

	atts := attachmentMeta(bs)
	if len(atts) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(atts))
	}
	if atts[0].Filename != "bundle.zip" || atts[0].ContentType != "application/zip" || atts[0].Size != 2048 {
		t.Errorf("unexpected attachment %+v", atts[0])
	}
}

func TestParseUID(t *testing.T) {
	if _, err := parseUID("not-a-number"); err == nil {
		t.Fatal("expected error for malformed id")
	}
	uid, err := parseUID("42")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if uid != 42 {
		t.Fatalf("expected 42, got %d", uid)
	}
}
