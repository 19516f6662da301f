package services

import (
	"context"
	"fmt"

	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/provider"
)

// MailService is the unified mail surface over the registry. Every
// operation resolves the account first, so an unknown account fails the
// same way on every call.
type MailService struct {
	accounts *AccountService
	logs     *LogService
}

func NewMailService(accounts *AccountService, logs *LogService) *MailService {
	return &MailService{accounts: accounts, logs: logs}
}

func (s *MailService) ListFolders(ctx context.Context, accountID string) ([]mail.Folder, error) {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	return p.ListFolders(ctx)
}

func (s *MailService) FetchMessages(ctx context.Context, accountID, folder string, limit, offset int) ([]mail.Message, error) {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	return p.FetchMessages(ctx, folder, limit, offset)
}

func (s *MailService) GetMessage(ctx context.Context, accountID, folder, msgID string) (*mail.Message, error) {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	return p.GetMessage(ctx, folder, msgID)
}

// SendMessage dispatches a draft through the account's provider and
// records the per-recipient outcome.
func (s *MailService) SendMessage(ctx context.Context, accountID string, draft mail.Draft) (*mail.SendResult, error) {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	result, err := p.SendMessage(ctx, draft)
	if err != nil {
		if s.logs != nil {
			s.logs.LogError(accountID, LogModuleDelivery, "send", "send failed", map[string]string{"error": err.Error()})
		}
		return nil, err
	}
	if s.logs != nil {
		failed := result.Failed()
		if len(failed) > 0 {
			s.logs.LogWarn(accountID, LogModuleDelivery, "send", "send completed with failures", result.Recipients)
		} else {
			s.logs.LogInfo(accountID, LogModuleDelivery, "send", "send completed", map[string]interface{}{
				"message_id": result.MessageID,
				"recipients": len(result.Recipients),
			})
		}
	}
	return result, nil
}

func (s *MailService) SetRead(ctx context.Context, accountID, folder, msgID string, read bool) error {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return err
	}
	return p.SetRead(ctx, folder, msgID, read)
}

func (s *MailService) DeleteMessage(ctx context.Context, accountID, folder, msgID string) error {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return err
	}
	if err := p.DeleteMessage(ctx, folder, msgID); err != nil {
		return err
	}
	if s.logs != nil {
		s.logs.LogInfo(accountID, LogModuleDelivery, "delete", "message deleted", map[string]string{"folder": folder, "message_id": msgID})
	}
	return nil
}

func (s *MailService) Search(ctx context.Context, accountID, query string) ([]mail.Message, error) {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	return p.Search(ctx, query)
}

// GetAttachment fetches the raw content of a stored attachment where
// the backend retains it.
func (s *MailService) GetAttachment(ctx context.Context, accountID, msgID, filename string) ([]byte, error) {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	type attachmentGetter interface {
		GetAttachment(ctx context.Context, id, filename string) ([]byte, error)
	}
	ag, ok := p.(attachmentGetter)
	if !ok {
		return nil, fmt.Errorf("%w: account backend does not retain attachment content", provider.ErrNotFound)
	}
	return ag.GetAttachment(ctx, msgID, filename)
}

// SetStarred toggles the starred flag where the backend supports it.
// Remote protocol accounts without flag support report ErrConnection.
func (s *MailService) SetStarred(ctx context.Context, accountID, folder, msgID string, starred bool) error {
	p, err := s.accounts.Resolve(accountID)
	if err != nil {
		return err
	}
	type starSetter interface {
		SetStarred(ctx context.Context, folder, msgID string, starred bool) error
	}
	ss, ok := p.(starSetter)
	if !ok {
		return fmt.Errorf("%w: account backend does not support starring", provider.ErrConnection)
	}
	return ss.SetStarred(ctx, folder, msgID, starred)
}
