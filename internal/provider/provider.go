package provider

import (
	"context"
	"errors"

	"github.com/Engineernoob/Term-Mail/internal/mail"
)

// Account kinds dispatched by the registry.
const (
	KindIMAP   = "imap"
	KindHosted = "hosted"
	KindLocal  = "local"
)

var (
	// ErrConnection indicates the backend was unreachable or a transient
	// transport failure occurred; the caller may retry.
	ErrConnection = errors.New("connection failed")
	// ErrAuth indicates the backend rejected the credentials; fatal until
	// the account is reconfigured, never retried at this layer.
	ErrAuth = errors.New("authentication failed")
	// ErrNotFound indicates the requested message or folder is absent;
	// the caller should refresh its view.
	ErrNotFound = errors.New("not found")
	// ErrUnknownAccount indicates the account id is not registered.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrNoRelayConfigured indicates a non-local recipient could not be
	// reached because the sending address has no enabled relay. Fatal for
	// that recipient only, never for the whole send.
	ErrNoRelayConfigured = errors.New("no relay configured")
	// ErrRateLimited indicates the hosted API asked the caller to back off.
	ErrRateLimited = errors.New("rate limited")
)

// Provider is the capability contract implemented by all three backend
// variants. The account is bound at construction; the registry resolves
// an account id to its instance. Transport and library errors never cross
// this boundary raw: they are wrapped into the taxonomy above.
type Provider interface {
	// ListFolders enumerates the account's folders with derived counts.
	ListFolders(ctx context.Context) ([]mail.Folder, error)

	// FetchMessages returns messages in the folder ordered newest-first.
	// The limit bounds backend cost and is honored exactly; offset skips
	// from the newest end.
	FetchMessages(ctx context.Context, folder string, limit, offset int) ([]mail.Message, error)

	// GetMessage returns the full message, including body content.
	GetMessage(ctx context.Context, folder, id string) (*mail.Message, error)

	// SendMessage submits a draft and reports per-recipient outcomes.
	SendMessage(ctx context.Context, draft mail.Draft) (*mail.SendResult, error)

	// SetRead sets the read flag. Repeating the same value is a no-op.
	SetRead(ctx context.Context, folder, id string, read bool) error

	// DeleteMessage removes a message. Local mailboxes use two-stage
	// deletion: first call moves to Trash, a second call on an id already
	// in Trash removes it permanently. Deleting an absent id returns
	// ErrNotFound to surface client-side staleness.
	DeleteMessage(ctx context.Context, folder, id string) error

	// Search matches the query case-insensitively as a substring against
	// subject, body and sender address.
	Search(ctx context.Context, query string) ([]mail.Message, error)
}
