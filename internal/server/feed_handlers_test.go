package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withServerRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func seedPosts(t *testing.T, s *Server, authorID uint, communityID *uint, n int) []*models.Post {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := &models.Post{
			Title:       fmt.Sprintf("post %d", i),
			PostType:    models.PostTypeText,
			Content:     "body",
			AuthorID:    &authorID,
			CommunityID: communityID,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.db.Create(post).Error)
		posts = append(posts, post)
	}
	return posts
}

func getJSON(t *testing.T, app *fiber.App, path string, dest interface{}) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	if dest != nil {
		decodeBody(t, resp, dest)
	}
	return resp
}

type feedPageBody struct {
	Posts []*models.Post `json:"posts"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
	Pages int            `json:"pages"`
	Sort  string         `json:"sort"`
}

func TestGetFeed_NewSortPagination(t *testing.T) {
	s := newTestServer(t)
	author := createAgent(t, s, "author")
	seedPosts(t, s, author.ID, nil, 3)

	app := fiber.New()
	app.Get("/feed", s.GetFeed)

	var page feedPageBody
	resp := getJSON(t, app, "/feed?sort=new&limit=2", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "new", page.Sort)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Posts, 2)
	// Newest first.
	assert.Equal(t, "post 2", page.Posts[0].Title)
	assert.Equal(t, "post 1", page.Posts[1].Title)

	resp = getJSON(t, app, "/feed?sort=new&limit=2&page=2", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "post 0", page.Posts[0].Title)

	// A page past the end is empty, not an error.
	resp = getJSON(t, app, "/feed?sort=new&limit=2&page=9", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, page.Posts)
}

func TestGetCommunityFeed_Scoped(t *testing.T) {
	s := newTestServer(t)
	author := createAgent(t, s, "author")

	community := &models.Community{Name: "golang", CreatorID: &author.ID}
	require.NoError(t, s.db.Create(community).Error)
	other := &models.Community{Name: "random", CreatorID: &author.ID}
	require.NoError(t, s.db.Create(other).Error)

	seedPosts(t, s, author.ID, &community.ID, 2)
	seedPosts(t, s, author.ID, &other.ID, 1)

	app := fiber.New()
	app.Get("/communities/:name/feed", s.GetCommunityFeed)

	var page feedPageBody
	resp := getJSON(t, app, "/communities/golang/feed?sort=new", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), page.Total)
	for _, p := range page.Posts {
		require.NotNil(t, p.CommunityID)
		assert.Equal(t, community.ID, *p.CommunityID)
	}

	resp = getJSON(t, app, "/communities/missing/feed", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSearchPosts(t *testing.T) {
	s := newTestServer(t)
	author := createAgent(t, s, "author")

	needle := &models.Post{
		Title:    "observability deep dive",
		PostType: models.PostTypeText,
		AuthorID: &author.ID,
	}
	require.NoError(t, s.db.Create(needle).Error)
	seedPosts(t, s, author.ID, nil, 2)

	app := fiber.New()
	app.Get("/posts/search", s.SearchPosts)

	var page feedPageBody
	resp := getJSON(t, app, "/posts/search?q=observability&sort=new", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "observability deep dive", page.Posts[0].Title)

	resp = getJSON(t, app, "/posts/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSearchPosts_MultiTermAndRelevance(t *testing.T) {
	s := newTestServer(t)
	author := createAgent(t, s, "author")

	titleHit := &models.Post{
		Title:    "redis caching patterns",
		PostType: models.PostTypeText,
		Content:  "a tour",
		AuthorID: &author.ID,
	}
	require.NoError(t, s.db.Create(titleHit).Error)
	bodyHit := &models.Post{
		Title:    "weekly roundup",
		PostType: models.PostTypeText,
		Content:  "includes redis tips and caching tricks",
		AuthorID: &author.ID,
	}
	require.NoError(t, s.db.Create(bodyHit).Error)
	partial := &models.Post{
		Title:    "redis only",
		PostType: models.PostTypeText,
		Content:  "no second term here",
		AuthorID: &author.ID,
	}
	require.NoError(t, s.db.Create(partial).Error)

	app := fiber.New()
	app.Get("/posts/search", s.SearchPosts)

	// Every term must match, and title matches outrank content matches.
	var page feedPageBody
	resp := getJSON(t, app, "/posts/search?q=redis+caching", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "redis caching patterns", page.Posts[0].Title)
	assert.Equal(t, "weekly roundup", page.Posts[1].Title)
}

func TestGetFeed_CacheRefreshesAfterVote(t *testing.T) {
	s := newTestServer(t)
	withServerRedis(t)
	author := createAgent(t, s, "author")
	voter := createAgent(t, s, "voter")
	posts := seedPosts(t, s, author.ID, nil, 2)

	feedApp := fiber.New()
	feedApp.Get("/feed", s.GetFeed)

	var page feedPageBody
	resp := getJSON(t, feedApp, "/feed?sort=top", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "post 1", page.Posts[0].Title)

	voteApp := fiber.New()
	voteApp.Use(asAgent(voter.ID))
	voteApp.Post("/posts/:id/vote", s.VotePost)
	voteResp := postJSON(t, voteApp, fmt.Sprintf("/posts/%d/vote", posts[0].ID), fiber.Map{"vote_type": 1})
	require.Equal(t, http.StatusOK, voteResp.StatusCode)
	voteResp.Body.Close()

	// The cached page from before the vote must not be served back.
	resp = getJSON(t, feedApp, "/feed?sort=top", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "post 0", page.Posts[0].Title)
}

func TestGetPost_AnonymousReadIsCached(t *testing.T) {
	s := newTestServer(t)
	mr := withServerRedis(t)
	author := createAgent(t, s, "author")
	posts := seedPosts(t, s, author.ID, nil, 1)

	app := fiber.New()
	app.Get("/posts/:id", s.GetPost)

	var got models.Post
	resp := getJSON(t, app, fmt.Sprintf("/posts/%d", posts[0].ID), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, posts[0].ID, got.ID)
	assert.True(t, mr.Exists(cache.PostKey(posts[0].ID)))

	// Repeat reads come from the cache.
	resp = getJSON(t, app, fmt.Sprintf("/posts/%d", posts[0].ID), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, posts[0].ID, got.ID)
}
