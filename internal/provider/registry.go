package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Account pairs an account identifier with its provider kind.
type Account struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type entry struct {
	account  Account
	provider Provider
}

// Registry maps account identifiers to configured provider instances.
// Adding or removing an account never disturbs in-flight operations on
// other accounts: instances are self-contained and the map is only read
// under a short lock during resolution.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Resolve returns the provider for an account id.
func (r *Registry) Resolve(accountID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}
	return e.provider, nil
}

// Account returns the account metadata for an id.
func (r *Registry) Account(accountID string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[accountID]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}
	return e.account, nil
}

// Add registers a provider instance for an account, replacing any
// previous registration with the same id.
func (r *Registry) Add(account Account, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[account.ID] = entry{account: account, provider: p}
}

// Remove unregisters an account. Removing an unknown id is a no-op.
func (r *Registry) Remove(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, accountID)
}

// Accounts lists registered accounts sorted by id.
func (r *Registry) Accounts() []Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
