package entity

import "time"

// SessionRetrievalConfig holds a session's retrieval mode and mode-specific
// parameters. Zero TopK/MaxHops means "use the router defaults".
type SessionRetrievalConfig struct {
	SessionId     string `gorm:"primaryKey"`
	RetrievalMode string // "none", "vector", "graph"
	TopK          int
	MaxHops       int
	UpdatedAt     *time.Time
}
