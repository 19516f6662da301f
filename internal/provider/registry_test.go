package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/Engineernoob/Term-Mail/internal/mail"
)

type stubProvider struct {
	id string
}

func (s *stubProvider) ListFolders(ctx context.Context) ([]mail.Folder, error) { return nil, nil }
func (s *stubProvider) FetchMessages(ctx context.Context, folder string, limit, offset int) ([]mail.Message, error) {
	return nil, nil
}
func (s *stubProvider) GetMessage(ctx context.Context, folder, id string) (*mail.Message, error) {
	return nil, nil
}
func (s *stubProvider) SendMessage(ctx context.Context, draft mail.Draft) (*mail.SendResult, error) {
	return nil, nil
}
func (s *stubProvider) SetRead(ctx context.Context, folder, id string, read bool) error { return nil }
func (s *stubProvider) DeleteMessage(ctx context.Context, folder, id string) error      { return nil }
func (s *stubProvider) Search(ctx context.Context, query string) ([]mail.Message, error) {
	return nil, nil
}

func TestRegistryResolveUnknownAccount(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("nobody"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestRegistryAddResolveRemove(t *testing.T) {
	r := NewRegistry()
	p := &stubProvider{id: "a"}
	r.Add(Account{ID: "alice@local.test", Kind: KindLocal}, p)

	got, err := r.Resolve("alice@local.test")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != p {
		t.Fatal("resolved a different provider instance")
	}

	acct, err := r.Account("alice@local.test")
	if err != nil || acct.Kind != KindLocal {
		t.Fatalf("unexpected account metadata %+v (err %v)", acct, err)
	}

	r.Remove("alice@local.test")
	if _, err := r.Resolve("alice@local.test"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount after remove, got %v", err)
	}
}

func TestRegistryAccountsSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"c@x", "a@x", "b@x"} {
		r.Add(Account{ID: id, Kind: KindIMAP}, &stubProvider{id: id})
	}

	accounts := r.Accounts()
	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
	want := []string{"a@x", "b@x", "c@x"}
	for i, a := range accounts {
		if a.ID != want[i] {
			t.Fatalf("accounts not sorted: got %v", accounts)
		}
	}
}

func TestRegistryReplaceKeepsLatest(t *testing.T) {
	r := NewRegistry()
	first := &stubProvider{id: "1"}
	second := &stubProvider{id: "2"}
	r.Add(Account{ID: "dup@x", Kind: KindHosted}, first)
	r.Add(Account{ID: "dup@x", Kind: KindHosted}, second)

	got, err := r.Resolve("dup@x")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != second {
		t.Fatal("registry did not replace the earlier registration")
	}
	if len(r.Accounts()) != 1 {
		t.Fatalf("expected a single account, got %d", len(r.Accounts()))
	}
}
