package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Log is an operation log entry persisted alongside the mail store.
type Log struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	AccountID string `gorm:"index" json:"account_id"`
	Level     string `json:"level"`
	Module    string `json:"module"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	Details   string `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

type LogModule string

const (
	LogModuleProvider LogModule = "provider"
	LogModuleDelivery LogModule = "delivery"
	LogModuleAddress  LogModule = "address"
	LogModuleAPI      LogModule = "api"
	LogModuleCLI      LogModule = "cli"
)

var logLevelPriority = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// LogService records and queries operation logs.
type LogService struct {
	db       *gorm.DB
	logLevel LogLevel
}

func NewLogService(db *gorm.DB) (*LogService, error) {
	return NewLogServiceWithLevel(db, string(LogLevelInfo))
}

func NewLogServiceWithLevel(db *gorm.DB, level string) (*LogService, error) {
	if err := db.AutoMigrate(&Log{}); err != nil {
		return nil, fmt.Errorf("failed to migrate log table: %v", err)
	}
	return &LogService{db: db, logLevel: parseLogLevel(level)}, nil
}

func parseLogLevel(level string) LogLevel {
	switch LogLevel(level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return LogLevel(level)
	default:
		return LogLevelInfo
	}
}

func (s *LogService) shouldLog(level LogLevel) bool {
	return logLevelPriority[level] >= logLevelPriority[s.logLevel]
}

// LogEntry is the input to Log; Details is marshaled to JSON when set.
type LogEntry struct {
	AccountID string
	Level     LogLevel
	Module    LogModule
	Action    string
	Message   string
	Details   interface{}
}

func (s *LogService) Log(entry LogEntry) error {
	if !s.shouldLog(entry.Level) {
		return nil
	}
	record := Log{
		AccountID: entry.AccountID,
		Level:     string(entry.Level),
		Module:    string(entry.Module),
		Action:    entry.Action,
		Message:   entry.Message,
	}
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err == nil {
			record.Details = string(data)
		}
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to write log entry: %v", err)
	}
	return nil
}

func (s *LogService) LogInfo(accountID string, module LogModule, action, message string, details interface{}) {
	_ = s.Log(LogEntry{AccountID: accountID, Level: LogLevelInfo, Module: module, Action: action, Message: message, Details: details})
}

func (s *LogService) LogWarn(accountID string, module LogModule, action, message string, details interface{}) {
	_ = s.Log(LogEntry{AccountID: accountID, Level: LogLevelWarn, Module: module, Action: action, Message: message, Details: details})
}

func (s *LogService) LogError(accountID string, module LogModule, action, message string, details interface{}) {
	_ = s.Log(LogEntry{AccountID: accountID, Level: LogLevelError, Module: module, Action: action, Message: message, Details: details})
}

// ListLogs returns the newest entries first, optionally scoped to one account.
func (s *LogService) ListLogs(accountID string, limit int) ([]Log, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []Log
	query := s.db.Order("created_at DESC, id DESC").Limit(limit)
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list logs: %v", err)
	}
	return logs, nil
}

// PurgeOlderThan deletes entries created before cutoff and reports how many.
func (s *LogService) PurgeOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&Log{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge logs: %v", result.Error)
	}
	return result.RowsAffected, nil
}
