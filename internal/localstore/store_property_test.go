package localstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Engineernoob/Term-Mail/internal/mail"
)

func setupStore(t *testing.T) (*Store, string, func()) {
	dir, err := os.MkdirTemp("", "localstore_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	key := make([]byte, 32)
	copy(key, []byte("test-encryption-key-32-bytes!!!!"))

	store, err := Open(dir, key)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("Failed to open store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(dir)
	}

	return store, dir, cleanup
}

// Everything written to the store survives a close and reopen: the
// address registry including the decrypted relay secret, and every
// stored message field.
func TestProperty_StoreSurvivesReopen(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("registry_and_messages_round_trip", prop.ForAll(
		func(localPart, secret, subject, body string) bool {
			if localPart == "" {
				localPart = "user"
			}
			store, dir, cleanup := setupStore(t)
			defer cleanup()

			rec, err := store.CreateAddress(localPart, "local.test")
			if err != nil {
				return false
			}
			if err := store.SetRelay(rec.Address, "smtp.relay.test", 587, "relay-user", secret, true); err != nil {
				return false
			}

			msg := mail.Message{
				ID:       "msg-1",
				From:     "someone@example.com",
				To:       []string{rec.Address},
				Cc:       []string{"cc@example.com"},
				Bcc:      []string{"bcc@example.com"},
				Subject:  subject,
				Body:     body,
				HTMLBody: "<p>" + body + "</p>",
				Date:     time.Now().UTC(),
				Provider: "local",
			}
			if err := store.AppendMessage(rec.Address, mail.FolderInbox, msg); err != nil {
				return false
			}

			// Reopen from the same directory.
			store.Close()
			key := make([]byte, 32)
			copy(key, []byte("test-encryption-key-32-bytes!!!!"))
			reopened, err := Open(dir, key)
			if err != nil {
				return false
			}
			defer reopened.Close()

			registry, err := reopened.LoadRegistry()
			if err != nil {
				return false
			}
			got, ok := registry[rec.Address]
			if !ok || got.LocalPart != localPart || !got.RelayEnabled {
				return false
			}
			decrypted, err := reopened.RelaySecret(&got)
			if err != nil || decrypted != secret {
				return false
			}

			loaded, err := reopened.GetMessage(rec.Address, mail.FolderInbox, "msg-1")
			if err != nil {
				return false
			}
			return loaded.Subject == subject &&
				loaded.Body == body &&
				loaded.From == msg.From &&
				len(loaded.To) == 1 && loaded.To[0] == rec.Address &&
				len(loaded.Cc) == 1 && loaded.Cc[0] == "cc@example.com" &&
				len(loaded.Bcc) == 1 && loaded.Bcc[0] == "bcc@example.com"
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// LoadMessages pages newest-first, honors limit exactly and never
// overlaps between consecutive windows.
func TestProperty_PaginationWindows(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("windows_are_disjoint_and_ordered", prop.ForAll(
		func(total uint8, limit uint8) bool {
			n := int(total%12) + 2
			window := int(limit%5) + 1

			store, _, cleanup := setupStore(t)
			defer cleanup()

			rec, err := store.CreateAddress("pager", "local.test")
			if err != nil {
				return false
			}
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < n; i++ {
				msg := mail.Message{
					ID:      "msg-" + string(rune('a'+i)),
					From:    "x@example.com",
					To:      []string{rec.Address},
					Subject: "s",
					Body:    "b",
					Date:    base.Add(time.Duration(i) * time.Minute),
				}
				if err := store.AppendMessage(rec.Address, mail.FolderInbox, msg); err != nil {
					return false
				}
			}

			seen := make(map[string]bool)
			var prev time.Time
			first := true
			for offset := 0; offset < n; offset += window {
				page, err := store.LoadMessages(rec.Address, mail.FolderInbox, window, offset)
				if err != nil {
					return false
				}
				want := window
				if n-offset < window {
					want = n - offset
				}
				if len(page) != want {
					return false
				}
				for _, m := range page {
					if seen[m.ID] {
						return false
					}
					seen[m.ID] = true
					if !first && m.Date.After(prev) {
						return false
					}
					prev = m.Date
					first = false
				}
			}
			return len(seen) == n
		},
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// Search matches case-insensitively as a substring against subject,
// body and sender, across all folders.
func TestSearchMatchesSubjectBodyAndSender(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	rec, err := store.CreateAddress("finder", "local.test")
	if err != nil {
		t.Fatalf("failed to create address: %v", err)
	}

	msgs := []mail.Message{
		{ID: "1", From: "a@example.com", Subject: "Quarterly Report", Body: "numbers", Date: time.Now().UTC()},
		{ID: "2", From: "b@example.com", Subject: "lunch", Body: "the report is attached", Date: time.Now().UTC()},
		{ID: "3", From: "report-bot@example.com", Subject: "hi", Body: "x", Date: time.Now().UTC()},
		{ID: "4", From: "c@example.com", Subject: "unrelated", Body: "nothing here", Date: time.Now().UTC()},
	}
	folders := []string{mail.FolderInbox, mail.FolderInbox, mail.FolderSent, mail.FolderInbox}
	for i, m := range msgs {
		if err := store.AppendMessage(rec.Address, folders[i], m); err != nil {
			t.Fatalf("failed to append message %s: %v", m.ID, err)
		}
	}

	results, err := store.SearchMessages(rec.Address, "REPORT")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(results))
	}
	for _, m := range results {
		if m.ID == "4" {
			t.Fatal("non-matching message returned")
		}
	}
}

// Creating the same address twice fails with ErrAddressExists;
// malformed parts fail with ErrInvalidAddress.
func TestCreateAddressValidation(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	if _, err := store.CreateAddress("dup", "local.test"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := store.CreateAddress("dup", "local.test"); !errors.Is(err, ErrAddressExists) {
		t.Fatalf("expected ErrAddressExists, got %v", err)
	}
	if _, err := store.CreateAddress("bad@part", "local.test"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	if _, err := store.CreateAddress("", "local.test"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for empty local part, got %v", err)
	}
}

// Deleting an address removes its messages and attachment files.
func TestDeleteAddressRemovesMessages(t *testing.T) {
	store, _, cleanup := setupStore(t)
	defer cleanup()

	rec, err := store.CreateAddress("leaver", "local.test")
	if err != nil {
		t.Fatalf("failed to create address: %v", err)
	}
	msg := mail.Message{ID: "m1", From: "x@example.com", Subject: "s", Body: "b", Date: time.Now().UTC()}
	if err := store.AppendMessage(rec.Address, mail.FolderInbox, msg); err != nil {
		t.Fatalf("failed to append message: %v", err)
	}
	if _, err := store.SaveAttachment(rec.Address, "m1", "notes.txt", []byte("hello")); err != nil {
		t.Fatalf("failed to save attachment: %v", err)
	}

	if err := store.DeleteAddress(rec.Address); err != nil {
		t.Fatalf("failed to delete address: %v", err)
	}
	if store.AddressExists(rec.Address) {
		t.Fatal("address still exists after delete")
	}
	if _, err := store.GetMessage(rec.Address, mail.FolderInbox, "m1"); err == nil {
		t.Fatal("message still readable after address delete")
	}
	if _, err := store.GetAttachment(rec.Address, "m1", "notes.txt"); err == nil {
		t.Fatal("attachment still readable after address delete")
	}
}

// Attachment filenames are sanitized before hitting the filesystem.
func TestAttachmentFilenameSanitized(t *testing.T) {
	store, dir, cleanup := setupStore(t)
	defer cleanup()

	rec, err := store.CreateAddress("files", "local.test")
	if err != nil {
		t.Fatalf("failed to create address: %v", err)
	}

	ref, err := store.SaveAttachment(rec.Address, "m1", "../../etc/passwd", []byte("data"))
	if err != nil {
		t.Fatalf("failed to save attachment: %v", err)
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		t.Fatalf("failed to resolve path: %v", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("failed to resolve data dir: %v", err)
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		t.Fatalf("attachment escaped the data dir: %s", abs)
	}
}
