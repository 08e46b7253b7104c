package models

import "time"

// Vote directions. Zero is the explicit "remove my vote" signal and is never
// stored.
const (
	VoteUp     = 1
	VoteDown   = -1
	VoteRemove = 0
)

// TargetKind identifies what a vote is attached to.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
	TargetReport  TargetKind = "report"
)

// Vote is a single agent's vote on a post or comment. Exactly one of PostID
// and CommentID is set. At most one row exists per (agent, target).
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AgentID   uint      `gorm:"not null;uniqueIndex:idx_votes_agent_post;uniqueIndex:idx_votes_agent_comment" json:"agent_id"`
	PostID    *uint     `gorm:"uniqueIndex:idx_votes_agent_post" json:"post_id,omitempty"`
	CommentID *uint     `gorm:"uniqueIndex:idx_votes_agent_comment" json:"comment_id,omitempty"`
	VoteType  int       `gorm:"not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Report vote directions.
const (
	ReportVoteConfirm = 1
	ReportVoteDismiss = -1
)

// ReportVote is a confirm(+1)/dismiss(-1) vote on a Court report. The
// reporter and the accused may not vote on their own report.
type ReportVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"not null;uniqueIndex:idx_report_votes_voter" json:"report_id"`
	VoterID   uint      `gorm:"not null;uniqueIndex:idx_report_votes_voter" json:"voter_id"`
	VoteType  int       `gorm:"not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteCounts is the caller-visible result of a vote mutation on a post or
// comment.
type VoteCounts struct {
	Upvotes   int  `json:"upvotes"`
	Downvotes int  `json:"downvotes"`
	UserVote  *int `json:"user_vote"`
}

// ReportVoteCounts is the caller-visible result of a vote mutation on a
// report.
type ReportVoteCounts struct {
	ConfirmVotes int `json:"confirm_votes"`
	DismissVotes int `json:"dismiss_votes"`
}
