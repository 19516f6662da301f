package localbox

import (
	"fmt"

	"github.com/Engineernoob/Term-Mail/internal/localstore"
	"github.com/Engineernoob/Term-Mail/internal/provider"
)

// Manager handles local address lifecycle and keeps the registry in
// step with the stored address registry.
type Manager struct {
	store    *localstore.Store
	registry *provider.Registry
}

// NewManager creates a manager over the shared store and registry.
func NewManager(store *localstore.Store, registry *provider.Registry) *Manager {
	return &Manager{store: store, registry: registry}
}

// Register loads every persisted address and registers a provider
// instance for each. Called once at startup.
func (m *Manager) Register() error {
	recs, err := m.store.LoadRegistry()
	if err != nil {
		return storeErr(err)
	}
	for address := range recs {
		m.registry.Add(provider.Account{ID: address, Kind: provider.KindLocal}, New(m.store, address))
	}
	return nil
}

// CreateAddress registers a new local address and its provider.
func (m *Manager) CreateAddress(localPart, domain string) (*localstore.LocalAddress, error) {
	rec, err := m.store.CreateAddress(localPart, domain)
	if err != nil {
		return nil, err
	}
	m.registry.Add(provider.Account{ID: rec.Address, Kind: provider.KindLocal}, New(m.store, rec.Address))
	return rec, nil
}

// DeleteAddress removes a local address, its stored messages, and its
// registry entry.
func (m *Manager) DeleteAddress(address string) error {
	if err := m.store.DeleteAddress(address); err != nil {
		return err
	}
	m.registry.Remove(address)
	return nil
}

// Addresses lists the registered local addresses.
func (m *Manager) Addresses() ([]localstore.LocalAddress, error) {
	recs, err := m.store.LoadRegistry()
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]localstore.LocalAddress, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec)
	}
	return out, nil
}

// SetRelay configures the SMTP relay for a local address.
func (m *Manager) SetRelay(address, server string, port int, username, secret string, enabled bool) error {
	if err := m.store.SetRelay(address, server, port, username, secret, enabled); err != nil {
		return err
	}
	return nil
}

// Resolve returns the local provider for an address, or an error if the
// address is not registered.
func (m *Manager) Resolve(address string) (*Provider, error) {
	if !m.store.AddressExists(address) {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnknownAccount, address)
	}
	return New(m.store, address), nil
}
