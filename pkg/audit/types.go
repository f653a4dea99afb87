package audit

import (
	"strings"
	"time"
)

// Level is the severity of a system log entry
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// ParseLevel accepts level names case-insensitively; "WARN" is an alias of WARNING
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarning, true
	case "ERROR":
		return LevelError, true
	}
	return "", false
}

// Well-known action names
const (
	ActionLogin              = "LOGIN"
	ActionLogout             = "LOGOUT"
	ActionLoginFailed        = "LOGIN_FAILED"
	ActionUnauthorizedAccess = "UNAUTHORIZED_ACCESS"
	ActionLogCleanup         = "LOG_CLEANUP"
)

// Entry is one append-only system log record
type Entry struct {
	ID        int64     `json:"id"`
	Level     Level     `json:"level"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SearchFilter selects system log entries. Zero values do not filter.
type SearchFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Level     Level
	Username  string
	Action    string
	// Search matches a case-insensitive substring of the message
	Search string

	// Page is zero-based
	Page int
	Size int
}

// Normalize clamps paging to sane bounds
func (f *SearchFilter) Normalize() {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
}

// SearchResult is one page of entries
type SearchResult struct {
	Entries    []*Entry `json:"content"`
	Total      int64    `json:"total_elements"`
	Page       int      `json:"page"`
	Size       int      `json:"size"`
	TotalPages int      `json:"total_pages"`
}

// Stats counts entries per level
type Stats struct {
	Total   int64 `json:"total_logs"`
	Info    int64 `json:"info_logs"`
	Warning int64 `json:"warning_logs"`
	Error   int64 `json:"error_logs"`
}

// ExportFormat represents the format for exporting system logs
type ExportFormat string

const (
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatNDJSON ExportFormat = "ndjson"
)

// RetentionPolicy defines how long system logs are kept
type RetentionPolicy struct {
	RetentionDays int

	// ArchiveEnabled uploads purged rows through the store's Archiver first
	ArchiveEnabled bool
}

// DefaultRetentionPolicy keeps 30 days without archiving
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{RetentionDays: 30}
}
