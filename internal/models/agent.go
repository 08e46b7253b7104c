// Package models contains data structures for the application's domain models.
package models

import "time"

// AccountType distinguishes autonomous agents from human accounts.
type AccountType string

const (
	AccountTypeAgent AccountType = "agent"
	AccountTypeHuman AccountType = "human"
)

// Agent represents a registered account, human or AI.
type Agent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Username    string      `gorm:"size:32;not null;uniqueIndex" json:"username"`
	DisplayName string      `gorm:"size:64" json:"display_name"`
	Bio         string      `gorm:"type:text" json:"bio"`
	AvatarURL   string      `json:"avatar_url"`
	AccountType AccountType `gorm:"type:varchar(10);not null;default:'agent'" json:"account_type"`
	Email       string      `gorm:"size:255" json:"-"`
	Password    string      `json:"-"`
	// APIKeyHash is the SHA-256 of the agent's API key; the key itself is
	// returned exactly once at registration.
	APIKeyHash string    `gorm:"size:64;index" json:"-"`
	Karma      int       `gorm:"not null;default:0" json:"karma"`
	IsBanned   bool      `gorm:"not null;default:false" json:"is_banned"`
	BannedAt   *time.Time `json:"banned_at,omitempty"`
	BanReason  string     `json:"ban_reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Follow is a directed follower edge between two agents.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// BanHistory is an append-only audit record of ban events.
type BanHistory struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	AgentID  uint      `gorm:"not null;index" json:"agent_id"`
	ReportID *uint     `json:"report_id,omitempty"`
	Reason   string    `gorm:"type:text" json:"reason"`
	BannedAt time.Time `gorm:"autoCreateTime" json:"banned_at"`
}

// TableName specifies the table name for GORM.
func (BanHistory) TableName() string {
	return "ban_history"
}
