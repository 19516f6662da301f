package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Engineernoob/Term-Mail/internal/mail"
)

var (
	// ErrAddressExists indicates the local address is already registered
	ErrAddressExists = errors.New("address already exists")
	// ErrAddressNotFound indicates the local address is not registered
	ErrAddressNotFound = errors.New("address not found")
	// ErrMessageNotFound indicates the message is absent in the folder
	ErrMessageNotFound = errors.New("message not found")
	// ErrInvalidAddress indicates a malformed local address
	ErrInvalidAddress = errors.New("invalid address")
	// ErrStoreFailed indicates the underlying store could not complete
	// the operation durably
	ErrStoreFailed = errors.New("store operation failed")
)

// Store owns the on-disk representation of local addresses and their
// per-folder message stores. Every mutation is committed before the call
// returns. Mutations to the same address are serialized by a per-address
// lock; different addresses proceed independently.
type Store struct {
	db            *gorm.DB
	dataDir       string
	encryptionKey []byte

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Open initializes the store under dataDir, creating the sqlite database
// and running migrations. encryptionKey protects relay secrets at rest.
func Open(dataDir string, encryptionKey []byte) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	dbPath := filepath.Join(dataDir, "localmail.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	if err := db.AutoMigrate(&LocalAddress{}, &StoredMessage{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	key := make([]byte, 32)
	copy(key, encryptionKey)

	return &Store{
		db:            db,
		dataDir:       dataDir,
		encryptionKey: key,
		locks:         make(map[string]*sync.Mutex),
	}, nil
}

// DB exposes the underlying database handle so sibling services (the
// operation log) can share the same sqlite file.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// lockFor returns the mutex serializing mutations for one address.
func (s *Store) lockFor(address string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[address]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[address] = mu
	}
	return mu
}

// CreateAddress registers a new local address. The address string must
// contain a non-empty local part and domain.
func (s *Store) CreateAddress(localPart, domain string) (*LocalAddress, error) {
	if localPart == "" || domain == "" || strings.ContainsAny(localPart+domain, "@ ") {
		return nil, ErrInvalidAddress
	}
	address := localPart + "@" + domain

	mu := s.lockFor(address)
	mu.Lock()
	defer mu.Unlock()

	var count int64
	s.db.Model(&LocalAddress{}).Where("address = ?", address).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAddressExists, address)
	}

	rec := &LocalAddress{
		Address:   address,
		LocalPart: localPart,
		Domain:    domain,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return rec, nil
}

// GetAddress loads one registered address.
func (s *Store) GetAddress(address string) (*LocalAddress, error) {
	var rec LocalAddress
	if err := s.db.Where("address = ?", address).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return &rec, nil
}

// AddressExists reports whether an address is registered locally.
func (s *Store) AddressExists(address string) bool {
	var count int64
	s.db.Model(&LocalAddress{}).Where("address = ?", address).Count(&count)
	return count > 0
}

// LoadRegistry returns all registered addresses keyed by address string.
func (s *Store) LoadRegistry() (map[string]LocalAddress, error) {
	var recs []LocalAddress
	if err := s.db.Order("address").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	out := make(map[string]LocalAddress, len(recs))
	for _, r := range recs {
		out[r.Address] = r
	}
	return out, nil
}

// SaveAddress persists registry changes for an existing address.
func (s *Store) SaveAddress(rec *LocalAddress) error {
	mu := s.lockFor(rec.Address)
	mu.Lock()
	defer mu.Unlock()

	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}

// DeleteAddress removes an address and all of its stored messages and
// attachment blobs.
func (s *Store) DeleteAddress(address string) error {
	mu := s.lockFor(address)
	mu.Lock()
	defer mu.Unlock()

	res := s.db.Where("address = ?", address).Delete(&LocalAddress{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}
	if err := s.db.Where("address = ?", address).Delete(&StoredMessage{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	os.RemoveAll(s.attachmentsDir(address))
	return nil
}

// SetRelay configures or clears the SMTP relay for an address. The
// secret is encrypted before it is written.
func (s *Store) SetRelay(address, server string, port int, username, secret string, enabled bool) error {
	mu := s.lockFor(address)
	mu.Lock()
	defer mu.Unlock()

	var rec LocalAddress
	if err := s.db.Where("address = ?", address).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrAddressNotFound, address)
		}
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	enc, err := s.encryptSecret(secret)
	if err != nil {
		return err
	}
	rec.RelayServer = server
	rec.RelayPort = port
	rec.RelayUsername = username
	rec.RelaySecretEnc = enc
	rec.RelayEnabled = enabled
	if err := s.db.Save(&rec).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}

// RelaySecret decrypts the stored relay secret for an address.
func (s *Store) RelaySecret(rec *LocalAddress) (string, error) {
	if rec.RelaySecretEnc == "" {
		return "", nil
	}
	return s.decryptSecret(rec.RelaySecretEnc)
}

// AppendMessage stores a message into (address, folder). The write is
// durable before the call returns.
func (s *Store) AppendMessage(address, folder string, m mail.Message) error {
	mu := s.lockFor(address)
	mu.Lock()
	defer mu.Unlock()

	rec, err := toStored(address, folder, m)
	if err != nil {
		return err
	}
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}

// LoadMessages returns the messages of (address, folder) newest-first.
// limit <= 0 means no limit; offset skips from the newest end.
func (s *Store) LoadMessages(address, folder string, limit, offset int) ([]mail.Message, error) {
	q := s.db.Where("address = ? AND folder = ?", address, folder).
		Order("date DESC, id DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []StoredMessage
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return fromStoredAll(recs)
}

// GetMessage loads one message from (address, folder).
func (s *Store) GetMessage(address, folder, id string) (*mail.Message, error) {
	var rec StoredMessage
	err := s.db.Where("address = ? AND folder = ? AND message_id = ?", address, folder, id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrMessageNotFound, folder, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	m, err := fromStored(rec)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MoveMessage re-parents a message from one folder to another within the
// same address.
func (s *Store) MoveMessage(address, fromFolder, toFolder, id string) error {
	mu := s.lockFor(address)
	mu.Lock()
	defer mu.Unlock()

	res := s.db.Model(&StoredMessage{}).
		Where("address = ? AND folder = ? AND message_id = ?", address, fromFolder, id).
		Update("folder", toFolder)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrMessageNotFound, fromFolder, id)
	}
	return nil
}

// RemoveMessage permanently deletes a message and its attachment blobs.
func (s *Store) RemoveMessage(address, folder, id string) error {
	mu := s.lockFor(address)
	mu.Lock()
	defer mu.Unlock()

	res := s.db.Where("address = ? AND folder = ? AND message_id = ?", address, folder, id).
		Delete(&StoredMessage{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrMessageNotFound, folder, id)
	}
	os.RemoveAll(filepath.Join(s.attachmentsDir(address), sanitizeFilename(id)))
	return nil
}

// SetRead updates the read flag of one message. Setting the flag to its
// current value is a durable no-op.
func (s *Store) SetRead(address, folder, id string, read bool) error {
	return s.setFlag(address, folder, id, "is_read", read)
}

// SetStarred updates the starred flag of one message.
func (s *Store) SetStarred(address, folder, id string, starred bool) error {
	return s.setFlag(address, folder, id, "is_starred", starred)
}

func (s *Store) setFlag(address, folder, id, column string, value bool) error {
	mu := s.lockFor(address)
	mu.Lock()
	defer mu.Unlock()

	res := s.db.Model(&StoredMessage{}).
		Where("address = ? AND folder = ? AND message_id = ?", address, folder, id).
		Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, res.Error)
	}
	if res.RowsAffected == 0 {
		// The row may exist with the flag already at the target value;
		// sqlite still reports it as affected, so zero rows means absent.
		var count int64
		s.db.Model(&StoredMessage{}).
			Where("address = ? AND folder = ? AND message_id = ?", address, folder, id).
			Count(&count)
		if count == 0 {
			return fmt.Errorf("%w: %s/%s", ErrMessageNotFound, folder, id)
		}
	}
	return nil
}

// FolderCounts recomputes total and unread counts per folder from the
// stored messages. Counts are never cached independently.
func (s *Store) FolderCounts(address string) (map[string]FolderCount, error) {
	type row struct {
		Folder string
		Total  int
		Unread int
	}
	var rows []row
	err := s.db.Model(&StoredMessage{}).
		Select("folder, COUNT(*) AS total, SUM(CASE WHEN is_read THEN 0 ELSE 1 END) AS unread").
		Where("address = ?", address).
		Group("folder").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	out := make(map[string]FolderCount, len(rows))
	for _, r := range rows {
		out[r.Folder] = FolderCount{Total: r.Total, Unread: r.Unread}
	}
	return out, nil
}

// SearchMessages matches query case-insensitively as a substring against
// subject, body and sender across all folders of the address.
func (s *Store) SearchMessages(address, query string) ([]mail.Message, error) {
	var recs []StoredMessage
	if err := s.db.Where("address = ?", address).Order("date DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	msgs, err := fromStoredAll(recs)
	if err != nil {
		return nil, err
	}
	var out []mail.Message
	for _, m := range msgs {
		if m.Matches(query) {
			out = append(out, m)
		}
	}
	return out, nil
}

func toStored(address, folder string, m mail.Message) (*StoredMessage, error) {
	toJSON, err := json.Marshal(m.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	ccJSON, err := json.Marshal(m.Cc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	bccJSON, err := json.Marshal(m.Bcc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	attJSON, err := json.Marshal(m.Attachments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return &StoredMessage{
		Address:     address,
		MessageID:   m.ID,
		Folder:      folder,
		FromAddr:    m.From,
		ToAddrs:     string(toJSON),
		CcAddrs:     string(ccJSON),
		BccAddrs:    string(bccJSON),
		Subject:     m.Subject,
		Body:        m.Body,
		HTMLBody:    m.HTMLBody,
		Date:        m.Date.UTC().Truncate(time.Microsecond),
		IsRead:      m.IsRead,
		IsStarred:   m.IsStarred,
		Attachments: string(attJSON),
	}, nil
}

func fromStored(rec StoredMessage) (mail.Message, error) {
	m := mail.Message{
		ID:        rec.MessageID,
		Folder:    rec.Folder,
		From:      rec.FromAddr,
		Subject:   rec.Subject,
		Body:      rec.Body,
		HTMLBody:  rec.HTMLBody,
		Date:      rec.Date.UTC(),
		IsRead:    rec.IsRead,
		IsStarred: rec.IsStarred,
		Provider:  "local",
	}
	if rec.ToAddrs != "" {
		if err := json.Unmarshal([]byte(rec.ToAddrs), &m.To); err != nil {
			return m, fmt.Errorf("%w: %v", ErrStoreFailed, err)
		}
	}
	if rec.CcAddrs != "" {
		if err := json.Unmarshal([]byte(rec.CcAddrs), &m.Cc); err != nil {
			return m, fmt.Errorf("%w: %v", ErrStoreFailed, err)
		}
	}
	if rec.BccAddrs != "" {
		if err := json.Unmarshal([]byte(rec.BccAddrs), &m.Bcc); err != nil {
			return m, fmt.Errorf("%w: %v", ErrStoreFailed, err)
		}
	}
	if rec.Attachments != "" {
		if err := json.Unmarshal([]byte(rec.Attachments), &m.Attachments); err != nil {
			return m, fmt.Errorf("%w: %v", ErrStoreFailed, err)
		}
	}
	return m, nil
}

func fromStoredAll(recs []StoredMessage) ([]mail.Message, error) {
	out := make([]mail.Message, 0, len(recs))
	for _, rec := range recs {
		m, err := fromStored(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
