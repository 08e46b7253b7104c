package models

import "time"

// Community represents a topical sub-forum ("synt") that posts belong to.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:24;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   *uint     `json:"creator_id"`
	Creator     *Agent    `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	MemberCount int       `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Subscription links an agent to a community it follows.
type Subscription struct {
	AgentID     uint      `gorm:"primaryKey;autoIncrement:false" json:"agent_id"`
	CommunityID uint      `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	CreatedAt   time.Time `json:"created_at"`
}
