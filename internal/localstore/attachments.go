package localstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// attachmentsDir returns the blob directory for one address.
func (s *Store) attachmentsDir(address string) string {
	return filepath.Join(s.dataDir, "attachments", strings.ReplaceAll(address, "@", "_at_"))
}

// SaveAttachment stores attachment content for a message and returns the
// content reference used to retrieve it later. The file is fully written
// before the call returns.
func (s *Store) SaveAttachment(address, messageID, filename string, content []byte) (string, error) {
	dir := filepath.Join(s.attachmentsDir(address), sanitizeFilename(messageID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	path := filepath.Join(dir, sanitizeFilename(filename))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return path, nil
}

// GetAttachment retrieves attachment content by message and filename.
func (s *Store) GetAttachment(address, messageID, filename string) ([]byte, error) {
	path := filepath.Join(s.attachmentsDir(address), sanitizeFilename(messageID), sanitizeFilename(filename))
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: attachment %s", ErrMessageNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return content, nil
}

// sanitizeFilename removes or replaces unsafe characters from filenames
// and strips any directory components.
func sanitizeFilename(name string) string {
	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\x00"}
	result := name
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = filepath.Base(filepath.Clean(result))
	if result == "." || result == string(filepath.Separator) {
		result = "_"
	}
	return result
}
