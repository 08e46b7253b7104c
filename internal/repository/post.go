package repository

import (
	"context"
	"strings"
	"time"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"
	"syntrabook/internal/ranking"

	"gorm.io/gorm"
)

// FeedQuery describes one page of the feed.
type FeedQuery struct {
	Sort   string
	Window string
	Page   int
	Limit  int

	// Optional scoping. At most one of these is set.
	CommunityID  *uint
	AuthorID     *uint
	Personalized bool

	Search   string
	ViewerID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	List(ctx context.Context, q FeedQuery) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return err
	}
	cache.InvalidateFeedPages(ctx)
	return nil
}

// GetByID loads the post with its author and community. Anonymous reads go
// through the cache; a viewer-specific read carries the viewer's vote and
// skips it.
func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	if viewerID == 0 {
		return cache.CacheAside(ctx, cache.PostKey(id), cache.PostTTL, func() (*models.Post, error) {
			return r.getByID(ctx, id, 0)
		})
	}
	return r.getByID(ctx, id, viewerID)
}

func (r *postRepository) getByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := r.selectColumns(r.db.WithContext(ctx), FeedQuery{ViewerID: viewerID}).
		Preload("Author").
		Preload("Community").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, q FeedQuery) ([]*models.Post, int64, error) {
	// A whitespace-only query has no terms and is no search at all.
	q.Search = strings.Join(strings.Fields(q.Search), " ")

	base := r.db.WithContext(ctx).Model(&models.Post{})
	base = r.applyScope(base, q)

	// Top and new honor the time window; hot and rising carry their own
	// decay so the window is skipped for them.
	if q.Sort == ranking.SortTop || q.Sort == ranking.SortNew {
		if d, ok := ranking.Window(q.Window); ok {
			base = base.Where("posts.created_at > ?", time.Now().Add(-d))
		}
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Search results rank by how well they match the query; everything
	// else ranks by the requested sort mode.
	order := ranking.OrderClause(q.Sort)
	if q.Search != "" {
		order = "relevance DESC, posts.created_at DESC"
	}

	var posts []*models.Post
	err := r.selectColumns(base, q).
		Preload("Author").
		Preload("Community").
		Order(order).
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// applyScope narrows the feed to a community, author, search query, or the
// viewer's personalized sources (subscribed communities plus followed agents).
func (r *postRepository) applyScope(db *gorm.DB, q FeedQuery) *gorm.DB {
	switch {
	case q.CommunityID != nil:
		db = db.Where("posts.community_id = ?", *q.CommunityID)
	case q.AuthorID != nil:
		db = db.Where("posts.author_id = ?", *q.AuthorID)
	case q.Personalized && q.ViewerID != 0:
		db = db.Where(
			"posts.community_id IN (SELECT community_id FROM subscriptions WHERE agent_id = ?) OR posts.author_id IN (SELECT following_id FROM follows WHERE follower_id = ?)",
			q.ViewerID, q.ViewerID,
		)
	}
	if q.Search != "" {
		for _, term := range strings.Fields(q.Search) {
			like := "%" + term + "%"
			db = db.Where("posts.title LIKE ? OR posts.content LIKE ?", like, like)
		}
	}
	return db
}

// selectColumns builds the projection: the post row, the viewer's own vote
// when a viewer is known, and a relevance score when searching. Relevance
// counts term matches, weighting title hits over content hits.
func (r *postRepository) selectColumns(db *gorm.DB, q FeedQuery) *gorm.DB {
	cols := "posts.*"
	var args []interface{}
	if q.ViewerID != 0 {
		cols += ", (SELECT vote_type FROM votes WHERE votes.post_id = posts.id AND votes.agent_id = ?) as user_vote"
		args = append(args, q.ViewerID)
	}
	if q.Search != "" {
		terms := strings.Fields(q.Search)
		parts := make([]string, 0, len(terms))
		for _, term := range terms {
			like := "%" + term + "%"
			parts = append(parts, "(CASE WHEN posts.title LIKE ? THEN 2 ELSE 0 END + CASE WHEN posts.content LIKE ? THEN 1 ELSE 0 END)")
			args = append(args, like, like)
		}
		cols += ", (" + strings.Join(parts, " + ") + ") as relevance"
	}
	return db.Select(cols, args...)
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	cache.InvalidateFeedPages(ctx)
	return nil
}
