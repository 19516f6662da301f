package mail

import (
	"strings"
	"time"
)

// Default folder names shared by every provider. Remote backends may
// expose additional folders; these four always exist for local mailboxes.
const (
	FolderInbox  = "INBOX"
	FolderSent   = "Sent"
	FolderDrafts = "Drafts"
	FolderTrash  = "Trash"
)

// DefaultFolders returns the standard folder set in display order.
func DefaultFolders() []string {
	return []string{FolderInbox, FolderSent, FolderDrafts, FolderTrash}
}

// Attachment describes an attachment without necessarily carrying its body.
// ContentRef is a provider-scoped reference used to retrieve the data later.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ContentRef  string `json:"content_ref,omitempty"`
}

// Message is the shared message model every provider translates into.
// ID is unique within (account, folder); a move re-parents the message
// rather than copying it.
type Message struct {
	ID          string       `json:"id"`
	Folder      string       `json:"folder"`
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Cc          []string     `json:"cc,omitempty"`
	Bcc         []string     `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	HTMLBody    string       `json:"html_body,omitempty"`
	Date        time.Time    `json:"date"`
	IsRead      bool         `json:"is_read"`
	IsStarred   bool         `json:"is_starred"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Provider    string       `json:"provider"`
}

// FromName extracts the display name from the From header, falling back
// to the local part of the address.
func (m *Message) FromName() string {
	if i := strings.Index(m.From, "<"); i >= 0 {
		name := strings.Trim(strings.TrimSpace(m.From[:i]), `"`)
		if name != "" {
			return name
		}
	}
	addr := m.FromAddress()
	if i := strings.Index(addr, "@"); i > 0 {
		return addr[:i]
	}
	return addr
}

// FromAddress extracts the bare address from the From header.
func (m *Message) FromAddress() string {
	if i := strings.Index(m.From, "<"); i >= 0 {
		return strings.Trim(m.From[i:], "<> ")
	}
	return m.From
}

// Preview returns a short plain-text preview of the body.
func (m *Message) Preview() string {
	text := m.Body
	if text == "" {
		text = m.HTMLBody
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 100 {
		return text[:97] + "..."
	}
	return text
}

// Matches reports whether the message matches a case-insensitive
// substring query against subject, body and sender address.
func (m *Message) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(m.Subject), q) ||
		strings.Contains(strings.ToLower(m.Body), q) ||
		strings.Contains(strings.ToLower(m.From), q)
}

// Folder describes a mailbox folder. MessageCount and UnreadCount are
// derived values, recomputed from stored messages on every read.
type Folder struct {
	Name         string `json:"name"`
	AccountID    string `json:"account_id"`
	MessageCount int    `json:"message_count"`
	UnreadCount  int    `json:"unread_count"`
}
