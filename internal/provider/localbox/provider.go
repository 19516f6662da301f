// Package localbox implements the locally-addressed mailbox provider.
// Messages for local recipients are delivered straight into their stores
// without network transmission; external recipients go through the
// sender's SMTP relay when one is configured.
package localbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Engineernoob/Term-Mail/internal/localstore"
	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/provider"
	"github.com/Engineernoob/Term-Mail/internal/smtpout"
)

// Provider serves one local address backed by the shared store.
type Provider struct {
	store   *localstore.Store
	address string
}

// New creates a provider bound to a registered local address.
func New(store *localstore.Store, address string) *Provider {
	return &Provider{store: store, address: address}
}

// Address returns the local address this provider serves.
func (p *Provider) Address() string {
	return p.address
}

// ListFolders returns the default folder set plus any extra folders
// holding messages, with counts recomputed from the store.
func (p *Provider) ListFolders(ctx context.Context) ([]mail.Folder, error) {
	counts, err := p.store.FolderCounts(p.address)
	if err != nil {
		return nil, storeErr(err)
	}

	var folders []mail.Folder
	seen := make(map[string]bool)
	for _, name := range mail.DefaultFolders() {
		c := counts[name]
		folders = append(folders, mail.Folder{
			Name:         name,
			AccountID:    p.address,
			MessageCount: c.Total,
			UnreadCount:  c.Unread,
		})
		seen[name] = true
	}
	for name, c := range counts {
		if !seen[name] {
			folders = append(folders, mail.Folder{
				Name:         name,
				AccountID:    p.address,
				MessageCount: c.Total,
				UnreadCount:  c.Unread,
			})
		}
	}
	return folders, nil
}

// FetchMessages returns messages from one folder, newest-first. A
// non-positive limit yields an empty window, as on the other backends.
func (p *Provider) FetchMessages(ctx context.Context, folder string, limit, offset int) ([]mail.Message, error) {
	if limit <= 0 {
		return []mail.Message{}, nil
	}
	msgs, err := p.store.LoadMessages(p.address, folder, limit, offset)
	if err != nil {
		return nil, storeErr(err)
	}
	return msgs, nil
}

// GetMessage loads a single message from a folder.
func (p *Provider) GetMessage(ctx context.Context, folder, id string) (*mail.Message, error) {
	m, err := p.store.GetMessage(p.address, folder, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return m, nil
}

// SendMessage routes the draft's recipients: local addresses receive a
// synchronous delivery into their INBOX; external addresses are relayed
// through the sender's SMTP relay configuration. Each recipient's
// outcome is independent. A copy is retained in the sender's Sent
// folder, or in Drafts when every recipient failed.
func (p *Provider) SendMessage(ctx context.Context, draft mail.Draft) (*mail.SendResult, error) {
	now := time.Now().UTC()
	result := &mail.SendResult{MessageID: uuid.NewString()}

	// Partition recipients preserving first-occurrence order.
	var local, external []string
	seen := make(map[string]bool)
	for _, addr := range draft.Recipients() {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		if p.store.AddressExists(addr) {
			local = append(local, addr)
		} else {
			external = append(external, addr)
		}
	}

	statuses := make(map[string]mail.RecipientStatus)

	// Local delivery first: synchronous, durable before this call
	// returns, atomically visible to the recipient's next fetch.
	for _, addr := range local {
		copyMsg := p.draftToMessage(draft, now)
		copyMsg.ID = uuid.NewString()
		copyMsg.Folder = mail.FolderInbox
		copyMsg.IsRead = false
		// The blind copy list stays on the sender's record only.
		copyMsg.Bcc = nil
		copyMsg.Attachments = p.storeAttachments(addr, copyMsg.ID, draft)
		if err := p.store.AppendMessage(addr, mail.FolderInbox, copyMsg); err != nil {
			statuses[addr] = mail.RecipientStatus{Address: addr, Err: provider.ErrConnection.Error()}
			continue
		}
		statuses[addr] = mail.RecipientStatus{Address: addr, Delivered: true}
	}

	// External recipients go through the relay as one envelope; without
	// an enabled relay each fails independently of the local deliveries.
	if len(external) > 0 {
		if err := p.relayExternal(draft, external); err != nil {
			kind := errKind(err)
			for _, addr := range external {
				statuses[addr] = mail.RecipientStatus{Address: addr, Err: kind}
			}
		} else {
			for _, addr := range external {
				statuses[addr] = mail.RecipientStatus{Address: addr, Delivered: true}
			}
		}
	}

	for _, addr := range draft.Recipients() {
		if st, ok := statuses[addr]; ok {
			result.Recipients = append(result.Recipients, st)
			delete(statuses, addr)
		}
	}

	// Retain the sender's copy: Sent when anything was attempted
	// successfully, Drafts when every recipient failed.
	targetFolder := mail.FolderSent
	if result.AllFailed() {
		targetFolder = mail.FolderDrafts
	}
	senderCopy := p.draftToMessage(draft, now)
	senderCopy.ID = result.MessageID
	senderCopy.Folder = targetFolder
	senderCopy.Attachments = p.storeAttachments(p.address, senderCopy.ID, draft)
	if err := p.store.AppendMessage(p.address, targetFolder, senderCopy); err != nil {
		return result, storeErr(err)
	}
	result.StoredIn = targetFolder

	return result, nil
}

// SetRead sets the read flag; repeating the same value is a no-op.
func (p *Provider) SetRead(ctx context.Context, folder, id string, read bool) error {
	return storeErr(p.store.SetRead(p.address, folder, id, read))
}

// SetStarred toggles the starred flag on a stored message.
func (p *Provider) SetStarred(ctx context.Context, folder, id string, starred bool) error {
	return storeErr(p.store.SetStarred(p.address, folder, id, starred))
}

// DeleteMessage applies two-stage deletion: the first call re-parents
// the message into Trash; a call against an id already in Trash removes
// it permanently. A third call observes ErrNotFound.
func (p *Provider) DeleteMessage(ctx context.Context, folder, id string) error {
	if folder == mail.FolderTrash {
		return storeErr(p.store.RemoveMessage(p.address, mail.FolderTrash, id))
	}
	return storeErr(p.store.MoveMessage(p.address, folder, mail.FolderTrash, id))
}

// Search matches the query against subject, body and sender across all
// folders of the address.
func (p *Provider) Search(ctx context.Context, query string) ([]mail.Message, error) {
	msgs, err := p.store.SearchMessages(p.address, query)
	if err != nil {
		return nil, storeErr(err)
	}
	return msgs, nil
}

// GetAttachment retrieves stored attachment content for a message.
func (p *Provider) GetAttachment(ctx context.Context, id, filename string) ([]byte, error) {
	content, err := p.store.GetAttachment(p.address, id, filename)
	if err != nil {
		return nil, storeErr(err)
	}
	return content, nil
}

// relayExternal transmits the draft to external recipients through the
// sender's relay configuration.
func (p *Provider) relayExternal(draft mail.Draft, recipients []string) error {
	rec, err := p.store.GetAddress(p.address)
	if err != nil {
		return storeErr(err)
	}
	if !rec.HasRelay() {
		return provider.ErrNoRelayConfigured
	}

	secret, err := p.store.RelaySecret(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	raw, err := smtpout.BuildMessage(p.address, draft)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}

	return smtpout.Send(relayConfig(rec, secret), p.address, recipients, raw)
}

// relayConfig maps a stored relay onto the submission client. Port 465
// is implicit TLS; any other port upgrades the session with STARTTLS.
func relayConfig(rec *localstore.LocalAddress, secret string) smtpout.Config {
	return smtpout.Config{
		Host:     rec.RelayServer,
		Port:     rec.RelayPort,
		Username: rec.RelayUsername,
		Password: secret,
		UseTLS:   rec.RelayPort == 465,
	}
}

func (p *Provider) draftToMessage(draft mail.Draft, date time.Time) mail.Message {
	return mail.Message{
		From:     p.address,
		To:       append([]string(nil), draft.To...),
		Cc:       append([]string(nil), draft.Cc...),
		Bcc:      append([]string(nil), draft.Bcc...),
		Subject:  draft.Subject,
		Body:     draft.Body,
		HTMLBody: draft.HTMLBody,
		Date:     date,
		IsRead:   false,
		Provider: provider.KindLocal,
	}
}

// storeAttachments writes draft attachment content for one owning
// mailbox and returns the resulting descriptors.
func (p *Provider) storeAttachments(owner, messageID string, draft mail.Draft) []mail.Attachment {
	if len(draft.Attachments) == 0 {
		return nil
	}
	out := make([]mail.Attachment, 0, len(draft.Attachments))
	for _, att := range draft.Attachments {
		ref, err := p.store.SaveAttachment(owner, messageID, att.Filename, att.Content)
		if err != nil {
			continue
		}
		out = append(out, mail.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        int64(len(att.Content)),
			ContentRef:  ref,
		})
	}
	return out
}

// storeErr maps store errors into the provider taxonomy. Unreadable or
// failing local state is equivalent to an unreachable backend for this
// address only.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, localstore.ErrMessageNotFound),
		errors.Is(err, localstore.ErrAddressNotFound):
		return fmt.Errorf("%w: %v", provider.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", provider.ErrConnection, err)
	}
}

// errKind renders a taxonomy error as its recipient-status failure kind.
func errKind(err error) string {
	switch {
	case errors.Is(err, provider.ErrNoRelayConfigured):
		return provider.ErrNoRelayConfigured.Error()
	case errors.Is(err, provider.ErrAuth):
		return provider.ErrAuth.Error()
	default:
		return provider.ErrConnection.Error()
	}
}
