package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Engineernoob/Term-Mail/internal/config"
	"github.com/Engineernoob/Term-Mail/internal/localstore"
	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/provider"
	"github.com/Engineernoob/Term-Mail/internal/provider/hostedapi"
	"github.com/Engineernoob/Term-Mail/internal/provider/imapmail"
	"github.com/Engineernoob/Term-Mail/internal/provider/localbox"
)

// AccountService owns the provider registry. It wires configured remote
// accounts and persisted local addresses into one lookup surface, so
// callers address every mailbox the same way regardless of backend.
type AccountService struct {
	registry *provider.Registry
	local    *localbox.Manager
	logs     *LogService
}

// NewAccountService builds the registry from the configured accounts
// and registers every persisted local address.
func NewAccountService(cfg *config.Config, store *localstore.Store, logs *LogService) (*AccountService, error) {
	registry := provider.NewRegistry()
	local := localbox.NewManager(store, registry)

	for _, acct := range cfg.Accounts {
		switch acct.Kind {
		case provider.KindIMAP:
			registry.Add(provider.Account{ID: acct.ID, Kind: provider.KindIMAP}, imapmail.New(imapmail.Config{
				Email:    acct.Email,
				Password: acct.Secret,
				IMAPHost: acct.IMAPHost,
				IMAPPort: acct.IMAPPort,
				SMTPHost: acct.SMTPHost,
				SMTPPort: acct.SMTPPort,
				UseSSL:   acct.UseSSL,
			}))
		case provider.KindHosted:
			registry.Add(provider.Account{ID: acct.ID, Kind: provider.KindHosted}, hostedapi.New(hostedapi.Config{
				APIKey:  acct.APIKey,
				GrantID: acct.GrantID,
				BaseURL: acct.BaseURL,
			}))
		case provider.KindLocal:
			address := acct.LocalPart + "@" + acct.Domain
			if acct.LocalPart != "" && !store.AddressExists(address) {
				if _, err := local.CreateAddress(acct.LocalPart, acct.Domain); err != nil && !errors.Is(err, localstore.ErrAddressExists) {
					return nil, fmt.Errorf("failed to create local address %s: %v", address, err)
				}
			}
		default:
			return nil, fmt.Errorf("unknown account kind %q for account %s", acct.Kind, acct.ID)
		}
	}

	if err := local.Register(); err != nil {
		return nil, fmt.Errorf("failed to register local addresses: %v", err)
	}

	return &AccountService{registry: registry, local: local, logs: logs}, nil
}

// Registry exposes the provider registry for direct resolution.
func (s *AccountService) Registry() *provider.Registry {
	return s.registry
}

// Local exposes the local address manager.
func (s *AccountService) Local() *localbox.Manager {
	return s.local
}

// Accounts lists the registered accounts sorted by ID.
func (s *AccountService) Accounts() []provider.Account {
	return s.registry.Accounts()
}

// Resolve returns the provider for an account ID.
func (s *AccountService) Resolve(accountID string) (provider.Provider, error) {
	return s.registry.Resolve(accountID)
}

// TestConnection verifies an account is reachable by listing its
// folders with a short deadline.
func (s *AccountService) TestConnection(ctx context.Context, accountID string) ([]mail.Folder, error) {
	p, err := s.registry.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	folders, err := p.ListFolders(ctx)
	if err != nil {
		if s.logs != nil {
			s.logs.LogWarn(accountID, LogModuleProvider, "test_connection", "connection test failed", map[string]string{"error": err.Error()})
		}
		return nil, err
	}
	if s.logs != nil {
		s.logs.LogInfo(accountID, LogModuleProvider, "test_connection", "connection test succeeded", map[string]int{"folders": len(folders)})
	}
	return folders, nil
}
