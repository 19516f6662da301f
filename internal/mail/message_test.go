package mail

import (
	"strings"
	"testing"
)

func TestFromNameAndAddress(t *testing.T) {
	cases := []struct {
		from     string
		wantName string
		wantAddr string
	}{
		{"Ann Smith <ann@example.com>", "Ann Smith", "ann@example.com"},
		{`"Bob" <bob@example.com>`, "Bob", "bob@example.com"},
		{"carol@example.com", "carol", "carol@example.com"},
		{"<dave@example.com>", "dave", "dave@example.com"},
	}
	for _, tc := range cases {
		m := Message{From: tc.from}
		if got := m.FromName(); got != tc.wantName {
			t.Errorf("FromName(%q) = %q, want %q", tc.from, got, tc.wantName)
		}
		if got := m.FromAddress(); got != tc.wantAddr {
			t.Errorf("FromAddress(%q) = %q, want %q", tc.from, got, tc.wantAddr)
		}
	}
}

func TestMatchesIsCaseInsensitiveSubstring(t *testing.T) {
	m := Message{
		From:    "Report Bot <bot@example.com>",
		Subject: "Quarterly Numbers",
		Body:    "attached is the summary",
	}

	for _, q := range []string{"quarterly", "SUMMARY", "report bot", "Numbers"} {
		if !m.Matches(q) {
			t.Errorf("expected %q to match", q)
		}
	}
	if m.Matches("invoice") {
		t.Error("unexpected match for unrelated query")
	}
}

func TestPreviewTruncatesAndFallsBackToHTML(t *testing.T) {
	long := Message{Body: strings.Repeat("word ", 50)}
	p := long.Preview()
	if len(p) > 100 {
		t.Errorf("preview too long: %d", len(p))
	}
	if !strings.HasSuffix(p, "...") {
		t.Errorf("long preview not truncated: %q", p)
	}

	htmlOnly := Message{HTMLBody: "short html"}
	if htmlOnly.Preview() != "short html" {
		t.Errorf("expected HTML fallback, got %q", htmlOnly.Preview())
	}
}

func TestDraftRecipientsOrder(t *testing.T) {
	d := Draft{
		To:  []string{"a@x", "b@x"},
		Cc:  []string{"c@x"},
		Bcc: []string{"d@x"},
	}
	got := d.Recipients()
	want := []string{"a@x", "b@x", "c@x", "d@x"}
	if len(got) != len(want) {
		t.Fatalf("expected %d recipients, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recipients out of order: %v", got)
		}
	}
}

func TestSendResultAllFailed(t *testing.T) {
	empty := SendResult{}
	if empty.AllFailed() {
		t.Error("empty result must not report all-failed")
	}

	mixed := SendResult{Recipients: []RecipientStatus{
		{Address: "a@x", Delivered: true},
		{Address: "b@x", Err: "no relay configured"},
	}}
	if mixed.AllFailed() {
		t.Error("mixed result must not report all-failed")
	}
	if len(mixed.Failed()) != 1 || mixed.Failed()[0].Address != "b@x" {
		t.Errorf("unexpected failed set: %+v", mixed.Failed())
	}

	failed := SendResult{Recipients: []RecipientStatus{
		{Address: "a@x", Err: "connection failed"},
	}}
	if !failed.AllFailed() {
		t.Error("fully failed result must report all-failed")
	}
}
