package mail

// DraftAttachment carries attachment content for an outgoing message.
type DraftAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Draft is an outgoing message before submission.
type Draft struct {
	To          []string          `json:"to"`
	Cc          []string          `json:"cc,omitempty"`
	Bcc         []string          `json:"bcc,omitempty"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	HTMLBody    string            `json:"html_body,omitempty"`
	Attachments []DraftAttachment `json:"attachments,omitempty"`
}

// Recipients returns To, then Cc, then Bcc, preserving order. Bcc
// addresses reach the envelope through here without ever appearing in
// the message headers.
func (d *Draft) Recipients() []string {
	out := make([]string, 0, len(d.To)+len(d.Cc)+len(d.Bcc))
	out = append(out, d.To...)
	out = append(out, d.Cc...)
	out = append(out, d.Bcc...)
	return out
}

// RecipientStatus reports the delivery outcome for a single recipient.
// Err is empty on success and carries the failure kind otherwise.
type RecipientStatus struct {
	Address   string `json:"address"`
	Delivered bool   `json:"delivered"`
	Err       string `json:"error,omitempty"`
}

// SendResult enumerates per-recipient outcomes of a single send. A send
// with mixed local and external recipients is never all-or-nothing.
type SendResult struct {
	MessageID  string            `json:"message_id,omitempty"`
	Recipients []RecipientStatus `json:"recipients"`
	// StoredIn names the sender-side folder the copy was retained in:
	// Sent when at least one recipient succeeded, Drafts when all failed.
	StoredIn string `json:"stored_in,omitempty"`
}

// AllFailed reports whether no recipient was delivered to.
func (r *SendResult) AllFailed() bool {
	for _, rs := range r.Recipients {
		if rs.Delivered {
			return false
		}
	}
	return len(r.Recipients) > 0
}

// Failed returns the statuses of recipients that were not delivered to.
func (r *SendResult) Failed() []RecipientStatus {
	var out []RecipientStatus
	for _, rs := range r.Recipients {
		if !rs.Delivered {
			out = append(out, rs)
		}
	}
	return out
}
