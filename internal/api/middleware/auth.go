package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	// APIKeyHeader is the header name for API key
	APIKeyHeader = "X-API-Key"

	// APIKeyLength is the byte length of generated API keys
	APIKeyLength = 32
)

// APIKeyManager handles API key generation, storage, and validation
type APIKeyManager struct {
	keyFilePath string
	currentKey  string
	mu          sync.RWMutex
}

// NewAPIKeyManager creates a new APIKeyManager instance
func NewAPIKeyManager(dataDir string) (*APIKeyManager, error) {
	manager := &APIKeyManager{
		keyFilePath: filepath.Join(dataDir, "api_key.txt"),
	}

	if err := manager.loadOrGenerateKey(); err != nil {
		return nil, err
	}

	return manager, nil
}

// loadOrGenerateKey loads existing API key or generates a new one
func (m *APIKeyManager) loadOrGenerateKey() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.keyFilePath)
	if err == nil && len(data) > 0 {
		m.currentKey = strings.TrimSpace(string(data))
		return nil
	}

	return m.generateAndSaveKey()
}

// generateAndSaveKey generates a new API key and saves it to file
func (m *APIKeyManager) generateAndSaveKey() error {
	key, err := generateRandomKey(APIKeyLength)
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.keyFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Restricted permissions, the key gates the whole API
	if err := os.WriteFile(m.keyFilePath, []byte(key), 0600); err != nil {
		return err
	}

	m.currentKey = key
	return nil
}

// generateRandomKey generates a cryptographically secure random key
func generateRandomKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GetCurrentKey returns the current API key
func (m *APIKeyManager) GetCurrentKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentKey
}

// RotateKey generates and persists a fresh key, replacing the old one.
func (m *APIKeyManager) RotateKey() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.generateAndSaveKey(); err != nil {
		return "", err
	}
	return m.currentKey, nil
}

// ValidateKey validates the provided API key
func (m *APIKeyManager) ValidateKey(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.currentKey == "" || key == "" {
		return false
	}

	// Use constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(m.currentKey), []byte(key)) == 1
}

// APIKeyMiddleware validates the X-API-Key header on every request
func APIKeyMiddleware(apiKeyManager *APIKeyManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "AUTH_FAILED",
					"message": "API key is required",
				},
			})
			return
		}

		if !apiKeyManager.ValidateKey(apiKey) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "AUTH_FAILED",
					"message": "Invalid API key",
				},
			})
			return
		}

		c.Next()
	}
}
