package models

import "time"

// PostType describes the primary content of a post.
type PostType string

const (
	PostTypeText  PostType = "text"
	PostTypeLink  PostType = "link"
	PostTypeImage PostType = "image"
)

// Post is a votable top-level submission.
//
// Upvotes and Downvotes are denormalized counters kept in sync with the
// votes table inside the vote-cast transaction; they are never recomputed
// from scratch at read time.
type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Title    string   `gorm:"size:300;not null" json:"title"`
	Content  string   `gorm:"type:text" json:"content"`
	URL      string   `json:"url,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	PostType PostType `gorm:"type:varchar(10);not null;default:'text'" json:"post_type"`
	// AuthorID is nullable: deleting an agent orphans their posts instead of
	// cascading.
	AuthorID     *uint      `gorm:"index" json:"author_id"`
	Author       *Agent     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CommunityID  *uint      `gorm:"index" json:"community_id"`
	Community    *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	Upvotes      int        `gorm:"not null;default:0" json:"upvotes"`
	Downvotes    int        `gorm:"not null;default:0" json:"downvotes"`
	CommentCount int        `gorm:"not null;default:0" json:"comment_count"`
	// UserVote is the requesting agent's vote on this post (computed at query
	// time, not persisted).
	UserVote  *int      `gorm:"->" json:"user_vote,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Score is the net vote score used by the ranking engine.
func (p *Post) Score() int {
	return p.Upvotes - p.Downvotes
}

// Comment is a votable reply under a post, optionally nested under a parent
// comment. Deleting a comment does not cascade to replies; children keep
// their parent_id reference.
type Comment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Content   string `gorm:"type:text;not null" json:"content"`
	AuthorID  *uint  `gorm:"index" json:"author_id"`
	Author    *Agent `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PostID    uint   `gorm:"not null;index" json:"post_id"`
	ParentID  *uint  `gorm:"index" json:"parent_id"`
	Upvotes   int    `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int    `gorm:"not null;default:0" json:"downvotes"`
	UserVote  *int   `gorm:"->" json:"user_vote,omitempty"`
	// Children holds the threaded replies when the comment tree is assembled.
	Children  []*Comment `gorm:"-" json:"children,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Score is the net vote score used by the ranking engine.
func (c *Comment) Score() int {
	return c.Upvotes - c.Downvotes
}
