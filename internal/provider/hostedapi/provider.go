package hostedapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/provider"
)

// Provider delegates every capability operation to the hosted mail API.
type Provider struct {
	api *apiClient
}

// New creates a provider for one hosted-API account.
func New(cfg Config) *Provider {
	return &Provider{api: newAPIClient(cfg)}
}

// ListFolders lists the account's folders with the API's own counts.
func (p *Provider) ListFolders(ctx context.Context) ([]mail.Folder, error) {
	var list apiFolderList
	if err := p.api.do(ctx, http.MethodGet, p.api.grantURL("/folders", nil), nil, &list); err != nil {
		return nil, err
	}

	folders := make([]mail.Folder, 0, len(list.Data))
	for _, f := range list.Data {
		name := f.Name
		if name == "" {
			name = f.ID
		}
		folders = append(folders, mail.Folder{
			Name:         name,
			AccountID:    p.api.cfg.GrantID,
			MessageCount: f.TotalCount,
			UnreadCount:  f.UnreadCount,
		})
	}
	return folders, nil
}

// FetchMessages maps limit and offset directly onto the API's paging
// parameters; the API returns newest-first.
func (p *Provider) FetchMessages(ctx context.Context, folder string, limit, offset int) ([]mail.Message, error) {
	if limit <= 0 {
		return []mail.Message{}, nil
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if folder != "" {
		query.Set("in", folder)
	}

	var list apiMessageList
	if err := p.api.do(ctx, http.MethodGet, p.api.grantURL("/messages", query), nil, &list); err != nil {
		return nil, err
	}

	out := make([]mail.Message, 0, len(list.Data))
	for _, m := range list.Data {
		out = append(out, toMessage(m, folder))
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetMessage fetches one message and verifies folder membership.
func (p *Provider) GetMessage(ctx context.Context, folder, id string) (*mail.Message, error) {
	var one apiMessageOne
	if err := p.api.do(ctx, http.MethodGet, p.api.grantURL("/messages/"+url.PathEscape(id), nil), nil, &one); err != nil {
		return nil, err
	}

	if folder != "" && len(one.Data.Folders) > 0 {
		member := false
		for _, f := range one.Data.Folders {
			if f == folder {
				member = true
				break
			}
		}
		if !member {
			return nil, fmt.Errorf("%w: %s/%s", provider.ErrNotFound, folder, id)
		}
	}

	m := toMessage(one.Data, folder)
	return &m, nil
}

// SendMessage submits the draft through the API. The API accepts the
// whole recipient set at once, so all recipients share the outcome.
func (p *Provider) SendMessage(ctx context.Context, draft mail.Draft) (*mail.SendResult, error) {
	body := draft.Body
	if draft.HTMLBody != "" {
		body = draft.HTMLBody
	}
	payload := map[string]interface{}{
		"to":      toParticipants(draft.To),
		"subject": draft.Subject,
		"body":    body,
	}
	if len(draft.Cc) > 0 {
		payload["cc"] = toParticipants(draft.Cc)
	}
	if len(draft.Bcc) > 0 {
		payload["bcc"] = toParticipants(draft.Bcc)
	}

	var one apiMessageOne
	err := p.api.do(ctx, http.MethodPost, p.api.grantURL("/messages/send", nil), payload, &one)

	result := &mail.SendResult{MessageID: one.Data.ID}
	for _, addr := range draft.Recipients() {
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

// SetRead flips the API's unread flag.
func (p *Provider) SetRead(ctx context.Context, folder, id string, read bool) error {
	payload := map[string]interface{}{"unread": !read}
	return p.api.do(ctx, http.MethodPut, p.api.grantURL("/messages/"+url.PathEscape(id), nil), payload, nil)
}

// DeleteMessage deletes the message through the API; the backend owns
// any trash semantics of its own.
func (p *Provider) DeleteMessage(ctx context.Context, folder, id string) error {
	return p.api.do(ctx, http.MethodDelete, p.api.grantURL("/messages/"+url.PathEscape(id), nil), nil, nil)
}

// Search delegates to the API's native search.
func (p *Provider) Search(ctx context.Context, query string) ([]mail.Message, error) {
	q := url.Values{}
	q.Set("search_query_native", query)
	q.Set("limit", "50")

	var list apiMessageList
	if err := p.api.do(ctx, http.MethodGet, p.api.grantURL("/messages", q), nil, &list); err != nil {
		return nil, err
	}

	out := make([]mail.Message, 0, len(list.Data))
	for _, m := range list.Data {
		out = append(out, toMessage(m, ""))
	}
	return out, nil
}

// toMessage maps a native API message into the shared model.
func toMessage(m apiMessage, folder string) mail.Message {
	out := mail.Message{
		ID:        m.ID,
		Folder:    folder,
		Subject:   m.Subject,
		Body:      m.Snippet,
		HTMLBody:  m.Body,
		IsRead:    !m.Unread,
		IsStarred: m.Starred,
		Provider:  provider.KindHosted,
	}
	if out.Folder == "" && len(m.Folders) > 0 {
		out.Folder = m.Folders[0]
	}
	if m.Date > 0 {
		out.Date = time.Unix(m.Date, 0).UTC()
	}
	if len(m.From) > 0 {
		out.From = formatParticipant(m.From[0])
	}
	for _, pt := range m.To {
		out.To = append(out.To, pt.Email)
	}
	for _, pt := range m.Cc {
		out.Cc = append(out.Cc, pt.Email)
	}
	for _, pt := range m.Bcc {
		out.Bcc = append(out.Bcc, pt.Email)
	}
	if out.Body == "" {
		out.Body = m.Body
	}
	for _, att := range m.Attachments {
		out.Attachments = append(out.Attachments, mail.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        att.Size,
			ContentRef:  att.ID,
		})
	}
	return out
}

func formatParticipant(pt apiParticipant) string {
	if pt.Name != "" {
		return fmt.Sprintf("%s <%s>", pt.Name, pt.Email)
	}
	return pt.Email
}

func toParticipants(addrs []string) []apiParticipant {
	out := make([]apiParticipant, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, apiParticipant{Email: a})
	}
	return out
}
