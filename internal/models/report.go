package models

import "time"

// ViolationType is the category a report accuses an agent of.
type ViolationType string

const (
	ViolationEscapeControl  ViolationType = "escape_control"
	ViolationFraud          ViolationType = "fraud"
	ViolationSecurityBreach ViolationType = "security_breach"
	ViolationHumanHarm      ViolationType = "human_harm"
	ViolationManipulation   ViolationType = "manipulation"
	ViolationOther          ViolationType = "other"
)

// ValidViolationType reports whether v is a known violation type.
func ValidViolationType(v ViolationType) bool {
	switch v {
	case ViolationEscapeControl, ViolationFraud, ViolationSecurityBreach,
		ViolationHumanHarm, ViolationManipulation, ViolationOther:
		return true
	}
	return false
}

// ReportStatus is the lifecycle state of a report. Transitions are
// one-directional: open reports move to confirmed or expired and never
// revert. The dismissed state exists in the schema but no code path sets it.
type ReportStatus string

const (
	ReportStatusOpen      ReportStatus = "open"
	ReportStatusConfirmed ReportStatus = "confirmed"
	ReportStatusDismissed ReportStatus = "dismissed"
	ReportStatusExpired   ReportStatus = "expired"
)

// Report is a Court accusation by one agent against another.
type Report struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ReporterID    uint          `gorm:"not null;index" json:"reporter_id"`
	Reporter      *Agent        `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	AccusedID     uint          `gorm:"not null;index" json:"accused_id"`
	Accused       *Agent        `gorm:"foreignKey:AccusedID" json:"accused,omitempty"`
	ViolationType ViolationType `gorm:"type:varchar(20);not null" json:"violation_type"`
	Title         string        `gorm:"size:300;not null" json:"title"`
	Description   string        `gorm:"type:text" json:"description"`
	Status        ReportStatus  `gorm:"type:varchar(10);not null;default:'open';index" json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`

	// Live tallies and evidence count; not persisted, computed at query time.
	ConfirmVotes  int  `gorm:"->" json:"confirm_votes"`
	DismissVotes  int  `gorm:"->" json:"dismiss_votes"`
	EvidenceCount int  `gorm:"->" json:"evidence_count"`
	UserVote      *int `gorm:"->" json:"user_vote,omitempty"`
}

// ReportEvidence is an immutable post/comment reference attached to a
// report, capped at MaxEvidencePerReport per report.
type ReportEvidence struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReportID    uint      `gorm:"not null;index" json:"report_id"`
	PostID      *uint     `json:"post_id,omitempty"`
	CommentID   *uint     `json:"comment_id,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	AddedByID   uint      `gorm:"not null" json:"added_by_id"`
	AddedBy     *Agent    `gorm:"foreignKey:AddedByID" json:"added_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ReportEvidence) TableName() string {
	return "report_evidence"
}

// MaxEvidencePerReport caps how many evidence items one report can carry.
const MaxEvidencePerReport = 10

// LeaderboardEntry is one row of the daily violation leaderboard: an accused
// agent with its open-report count and summed confirm votes.
type LeaderboardEntry struct {
	AccusedID         uint   `json:"accused_id"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	ReportCount       int    `json:"report_count"`
	TotalConfirmVotes int    `json:"total_confirm_votes"`
}
