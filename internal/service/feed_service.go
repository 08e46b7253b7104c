package service

import (
	"context"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"
	"syntrabook/internal/observability"
	"syntrabook/internal/ranking"
	"syntrabook/internal/repository"
)

const (
	defaultFeedLimit = 25
	maxFeedLimit     = 100
)

type FeedService struct {
	postRepo repository.PostRepository
}

type ListFeedInput struct {
	Sort   string
	Window string
	Page   int
	Limit  int

	CommunityID  *uint
	AuthorID     *uint
	Personalized bool

	Search   string
	ViewerID uint
}

// FeedPage is one assembled page of the feed with pagination metadata.
type FeedPage struct {
	Posts []*models.Post `json:"posts"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
	Pages int            `json:"pages"`
	Sort  string         `json:"sort"`
}

func NewFeedService(postRepo repository.PostRepository) *FeedService {
	return &FeedService{postRepo: postRepo}
}

// normalize fills defaults and clamps pagination. Unknown sorts fall back
// to hot rather than erroring, so stale clients keep working.
func (in *ListFeedInput) normalize() {
	if !ranking.ValidSort(in.Sort) {
		in.Sort = ranking.SortHot
	}
	// Unspecified or unknown windows default to a day; "all" must be asked
	// for explicitly. Hot and rising decay on their own and ignore windows.
	if _, ok := ranking.Window(in.Window); !ok && in.Window != ranking.WindowAll {
		in.Window = ranking.WindowDay
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 {
		in.Limit = defaultFeedLimit
	}
	if in.Limit > maxFeedLimit {
		in.Limit = maxFeedLimit
	}
}

func (s *FeedService) ListFeed(ctx context.Context, in ListFeedInput) (*FeedPage, error) {
	in.normalize()
	observability.FeedRequests.WithLabelValues(in.Sort).Inc()

	// The global anonymous feed is the hottest read path; page results are
	// cached briefly. Scoped, personalized, or authenticated pages carry
	// viewer-specific vote state and skip the cache.
	if in.cacheable() {
		page, err := cache.CacheAside(ctx, cache.FeedPageKey(in.Sort, in.Window, in.Page, in.Limit), cache.FeedPageTTL, func() (FeedPage, error) {
			p, err := s.assemble(ctx, in)
			if err != nil {
				return FeedPage{}, err
			}
			return *p, nil
		})
		if err != nil {
			return nil, err
		}
		return &page, nil
	}
	return s.assemble(ctx, in)
}

func (in ListFeedInput) cacheable() bool {
	return in.ViewerID == 0 && in.CommunityID == nil && in.AuthorID == nil &&
		!in.Personalized && in.Search == ""
}

func (s *FeedService) assemble(ctx context.Context, in ListFeedInput) (*FeedPage, error) {
	posts, total, err := s.postRepo.List(ctx, repository.FeedQuery{
		Sort:         in.Sort,
		Window:       in.Window,
		Page:         in.Page,
		Limit:        in.Limit,
		CommunityID:  in.CommunityID,
		AuthorID:     in.AuthorID,
		Personalized: in.Personalized,
		Search:       in.Search,
		ViewerID:     in.ViewerID,
	})
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(in.Limit) - 1) / int64(in.Limit))
	return &FeedPage{
		Posts: posts,
		Page:  in.Page,
		Limit: in.Limit,
		Total: total,
		Pages: pages,
		Sort:  in.Sort,
	}, nil
}
