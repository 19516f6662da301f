package localstore

import (
	"time"
)

// LocalAddress is a locally-owned mailbox address. The address string
// (local part + domain) is unique across the registry. The relay secret
// is encrypted at rest with AES-256-GCM.
type LocalAddress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Address        string    `gorm:"uniqueIndex;size:255;not null" json:"address"`
	LocalPart      string    `gorm:"size:128;not null" json:"local_part"`
	Domain         string    `gorm:"size:128;not null" json:"domain"`
	RelayServer    string    `gorm:"size:255" json:"relay_server"`
	RelayPort      int       `json:"relay_port"`
	RelayUsername  string    `gorm:"size:255" json:"relay_username"`
	RelaySecretEnc string    `gorm:"size:500" json:"-"`
	RelayEnabled   bool      `gorm:"default:false" json:"relay_enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasRelay reports whether the address can transmit to external
// recipients.
func (a *LocalAddress) HasRelay() bool {
	return a.RelayEnabled && a.RelayServer != "" && a.RelayUsername != ""
}

// StoredMessage is the on-disk representation of a message owned by a
// local address. Address slices and attachment descriptors are stored as
// JSON text columns. A message belongs to exactly one (address, folder)
// pair; a move updates Folder in place.
type StoredMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Address     string    `gorm:"index:idx_addr_msg,unique;size:255;not null" json:"address"`
	MessageID   string    `gorm:"index:idx_addr_msg,unique;size:64;not null" json:"message_id"`
	Folder      string    `gorm:"index;size:64;not null" json:"folder"`
	FromAddr    string    `gorm:"size:255" json:"from"`
	ToAddrs     string    `gorm:"type:text" json:"to"`  // JSON array
	CcAddrs     string    `gorm:"type:text" json:"cc"`  // JSON array
	BccAddrs    string    `gorm:"type:text" json:"bcc"` // JSON array
	Subject     string    `gorm:"size:500" json:"subject"`
	Body        string    `gorm:"type:text" json:"body"`
	HTMLBody    string    `gorm:"type:text" json:"html_body"`
	Date        time.Time `gorm:"index" json:"date"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	IsStarred   bool      `gorm:"default:false" json:"is_starred"`
	Attachments string    `gorm:"type:text" json:"attachments"` // JSON array of descriptors
	CreatedAt   time.Time `json:"created_at"`
}

// FolderCount carries the derived counts for one folder.
type FolderCount struct {
	Total  int
	Unread int
}
