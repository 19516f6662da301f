// Package imapmail implements the remote-protocol provider: IMAP for
// folder and message operations, SMTP for sends.
package imapmail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	id "github.com/emersion/go-imap-id"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"

	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/provider"
	"github.com/Engineernoob/Term-Mail/internal/smtpout"
)

const connectTimeout = 10 * time.Second

// Config carries the account settings for one IMAP/SMTP mailbox.
type Config struct {
	Email    string
	Password string
	IMAPHost string
	IMAPPort int
	SMTPHost string
	SMTPPort int
	UseSSL   bool
}

// Provider opens a protocol session per logical operation against the
// configured servers. A transient failure during a read surfaces as
// ErrConnection with no automatic retry; rejected credentials surface
// as ErrAuth and are never retried.
type Provider struct {
	cfg Config
}

// New creates a provider for one remote mailbox account.
func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

// connect dials the IMAP server, identifies the client where the server
// requires it, and authenticates.
func (p *Provider) connect() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", p.cfg.IMAPHost, p.cfg.IMAPPort)
	dialer := &net.Dialer{Timeout: connectTimeout}

	var conn net.Conn
	var err error
	if p.cfg.UseSSL {
		tlsConfig := &tls.Config{ServerName: p.cfg.IMAPHost}
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	c, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	c.Timeout = 5 * time.Minute

	// Some servers require client identification before login.
	if ok, _ := c.Support("ID"); ok {
		idClient := id.NewClient(c)
		_, _ = idClient.ID(id.ID{
			id.FieldName:    "Term-Mail",
			id.FieldVersion: "1.0.0",
		})
	}

	if err := c.Login(p.cfg.Email, p.cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: %v", provider.ErrAuth, err)
	}
	return c, nil
}

// ListFolders enumerates mailboxes with their message and unseen counts.
func (p *Provider) ListFolders(ctx context.Context) ([]mail.Folder, error) {
	c, err := p.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mailboxes := make(chan *imap.MailboxInfo, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	var names []string
	for mb := range mailboxes {
		names = append(names, mb.Name)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	folders := make([]mail.Folder, 0, len(names))
	for _, name := range names {
		status, err := c.Status(name, []imap.StatusItem{imap.StatusMessages, imap.StatusUnseen})
		if err != nil {
			// Non-selectable mailbox; report it without counts.
			folders = append(folders, mail.Folder{Name: name, AccountID: p.cfg.Email})
			continue
		}
		folders = append(folders, mail.Folder{
			Name:         name,
			AccountID:    p.cfg.Email,
			MessageCount: int(status.Messages),
			UnreadCount:  int(status.Unseen),
		})
	}
	return folders, nil
}

// FetchMessages returns envelope-level messages from a folder, newest
// first, honoring limit and offset exactly. Bodies and attachment
// content are not downloaded on this path.
func (p *Provider) FetchMessages(ctx context.Context, folder string, limit, offset int) ([]mail.Message, error) {
	if limit <= 0 {
		return []mail.Message{}, nil
	}

	c, err := p.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select(folder, true)
	if err != nil {
		return nil, fmt.Errorf("%w: select %s: %v", provider.ErrNotFound, folder, err)
	}

	total := int(mbox.Messages)
	if total == 0 || offset >= total {
		return []mail.Message{}, nil
	}

	// Highest sequence numbers are the newest messages.
	from := total - offset
	to := from - limit + 1
	if to < 1 {
		to = 1
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(uint32(to), uint32(from))

	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchFlags, imap.FetchBodyStructure}
	messages := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var out []mail.Message
	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		out = append(out, p.toMessage(msg, folder))
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	// Channel order is ascending sequence; newest-first wants the
	// reverse.
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetMessage downloads and parses one message, including its body.
func (p *Provider) GetMessage(ctx context.Context, folder, msgID string) (*mail.Message, error) {
	uid, err := parseUID(msgID)
	if err != nil {
		return nil, err
	}

	c, err := p.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select(folder, true); err != nil {
		return nil, fmt.Errorf("%w: select %s: %v", provider.ErrNotFound, folder, err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchFlags, section.FetchItem()}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var found *mail.Message
	for msg := range messages {
		if msg == nil {
			continue
		}
		m := p.toMessage(msg, folder)
		for _, literal := range msg.Body {
			parseRawMessage(literal, &m)
		}
		found = &m
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s/%s", provider.ErrNotFound, folder, msgID)
	}
	return found, nil
}

// SendMessage builds the envelope and submits it through the account's
// SMTP server. The server owns the sent copy; all recipients share the
// submission outcome.
func (p *Provider) SendMessage(ctx context.Context, draft mail.Draft) (*mail.SendResult, error) {
	raw, err := smtpout.BuildMessage(p.cfg.Email, draft)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	recipients := draft.Recipients()
	result := &mail.SendResult{}

	err = smtpout.Send(smtpout.Config{
		Host:     p.cfg.SMTPHost,
		Port:     p.cfg.SMTPPort,
		Username: p.cfg.Email,
		Password: p.cfg.Password,
		UseTLS:   p.cfg.UseSSL && p.cfg.SMTPPort == 465,
	}, p.cfg.Email, recipients, raw)

	for _, addr := range recipients {
		st := mail.RecipientStatus{Address: addr, Delivered: err == nil}
		if err != nil {
			st.Err = err.Error()
		}
		result.Recipients = append(result.Recipients, st)
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// SetRead updates the \Seen flag. Re-applying the current value is a
// server-side no-op.
func (p *Provider) SetRead(ctx context.Context, folder, msgID string, read bool) error {
	uid, err := parseUID(msgID)
	if err != nil {
		return err
	}

	c, err := p.connect()
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select(folder, false); err != nil {
		return fmt.Errorf("%w: select %s: %v", provider.ErrNotFound, folder, err)
	}
	if err := p.requireUID(c, uid, folder, msgID); err != nil {
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	op := imap.FlagsOp(imap.AddFlags)
	if !read {
		op = imap.RemoveFlags
	}
	item := imap.FormatFlagsOp(op, true)
	if err := c.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	return nil
}

// DeleteMessage moves the message to Trash; against a message already in
// Trash it expunges permanently.
func (p *Provider) DeleteMessage(ctx context.Context, folder, msgID string) error {
	uid, err := parseUID(msgID)
	if err != nil {
		return err
	}

	c, err := p.connect()
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select(folder, false); err != nil {
		return fmt.Errorf("%w: select %s: %v", provider.ErrNotFound, folder, err)
	}
	if err := p.requireUID(c, uid, folder, msgID); err != nil {
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if folder != mail.FolderTrash {
		if err := c.UidCopy(seqSet, mail.FolderTrash); err != nil {
			return fmt.Errorf("%w: %v", provider.ErrConnection, err)
		}
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqSet, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	if err := c.Expunge(nil); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	return nil
}

// Search runs a server-side TEXT search over the inbox, which covers
// subject, body and sender headers case-insensitively.
func (p *Provider) Search(ctx context.Context, query string) ([]mail.Message, error) {
	c, err := p.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select(mail.FolderInbox, true); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Text = []string{query}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	if len(seqNums) == 0 {
		return []mail.Message{}, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchFlags, imap.FetchBodyStructure}
	messages := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var out []mail.Message
	for msg := range messages {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		out = append(out, p.toMessage(msg, mail.FolderInbox))
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// requireUID verifies the uid exists in the selected mailbox so staleness
// surfaces as ErrNotFound instead of a silent no-op.
func (p *Provider) requireUID(c *client.Client, uid uint32, folder, msgID string) error {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	criteria := imap.NewSearchCriteria()
	criteria.Uid = seqSet
	nums, err := c.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
	if len(nums) == 0 {
		return fmt.Errorf("%w: %s/%s", provider.ErrNotFound, folder, msgID)
	}
	return nil
}

func parseUID(msgID string) (uint32, error) {
	uid, err := strconv.ParseUint(msgID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad message id %q", provider.ErrNotFound, msgID)
	}
	return uint32(uid), nil
}
