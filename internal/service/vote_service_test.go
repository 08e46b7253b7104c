package service

import (
	"context"
	"testing"

	"syntrabook/internal/models"
	"syntrabook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// voteRepoStub is a stub for repository.VoteRepository.
type voteRepoStub struct {
	castPostVoteFn    func(context.Context, uint, uint, int) (repository.VoteOutcome, *models.VoteCounts, error)
	castCommentVoteFn func(context.Context, uint, uint, int) (repository.VoteOutcome, *models.VoteCounts, error)
	getPostVoteFn     func(context.Context, uint, uint) (*models.Vote, error)
	getCommentVoteFn  func(context.Context, uint, uint) (*models.Vote, error)
}

func (s *voteRepoStub) CastPostVote(ctx context.Context, agentID, postID uint, direction int) (repository.VoteOutcome, *models.VoteCounts, error) {
	return s.castPostVoteFn(ctx, agentID, postID, direction)
}
func (s *voteRepoStub) CastCommentVote(ctx context.Context, agentID, commentID uint, direction int) (repository.VoteOutcome, *models.VoteCounts, error) {
	return s.castCommentVoteFn(ctx, agentID, commentID, direction)
}
func (s *voteRepoStub) GetPostVote(ctx context.Context, agentID, postID uint) (*models.Vote, error) {
	return s.getPostVoteFn(ctx, agentID, postID)
}
func (s *voteRepoStub) GetCommentVote(ctx context.Context, agentID, commentID uint) (*models.Vote, error) {
	return s.getCommentVoteFn(ctx, agentID, commentID)
}

func noopVoteRepo() *voteRepoStub {
	return &voteRepoStub{
		castPostVoteFn: func(_ context.Context, _, _ uint, _ int) (repository.VoteOutcome, *models.VoteCounts, error) {
			return repository.VoteCreated, &models.VoteCounts{}, nil
		},
		castCommentVoteFn: func(_ context.Context, _, _ uint, _ int) (repository.VoteOutcome, *models.VoteCounts, error) {
			return repository.VoteCreated, &models.VoteCounts{}, nil
		},
		getPostVoteFn:    func(_ context.Context, _, _ uint) (*models.Vote, error) { return nil, gorm.ErrRecordNotFound },
		getCommentVoteFn: func(_ context.Context, _, _ uint) (*models.Vote, error) { return nil, gorm.ErrRecordNotFound },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint, uint) (*models.Post, error)
	listFn    func(context.Context, repository.FeedQuery) ([]*models.Post, int64, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, q repository.FeedQuery) ([]*models.Post, int64, error) {
	return s.listFn(ctx, q)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn: func(_ context.Context, _ repository.FeedQuery) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		updateFn: func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByPostFn   func(context.Context, uint, uint) ([]*models.Comment, error)
	listByAuthorFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	deleteFn       func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, viewerID)
}
func (s *commentRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Comment, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn:   func(_ context.Context, _, _ uint) ([]*models.Comment, error) { return nil, nil },
		listByAuthorFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
	}
}

func TestVoteOnPost_InvalidDirection(t *testing.T) {
	svc := NewVoteService(noopVoteRepo(), noopPostRepo(), noopCommentRepo())

	_, err := svc.VoteOnPost(context.Background(), CastVoteInput{AgentID: 1, TargetID: 1, Direction: 2})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestVoteOnPost_PostNotFound(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewVoteService(noopVoteRepo(), posts, noopCommentRepo())

	_, err := svc.VoteOnPost(context.Background(), CastVoteInput{AgentID: 1, TargetID: 99, Direction: 1})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestVoteOnPost_ReturnsCounts(t *testing.T) {
	votes := noopVoteRepo()
	up := models.VoteUp
	votes.castPostVoteFn = func(_ context.Context, agentID, postID uint, direction int) (repository.VoteOutcome, *models.VoteCounts, error) {
		assert.Equal(t, uint(7), agentID)
		assert.Equal(t, uint(3), postID)
		assert.Equal(t, models.VoteUp, direction)
		return repository.VoteCreated, &models.VoteCounts{Upvotes: 5, Downvotes: 1, UserVote: &up}, nil
	}
	svc := NewVoteService(votes, noopPostRepo(), noopCommentRepo())

	counts, err := svc.VoteOnPost(context.Background(), CastVoteInput{AgentID: 7, TargetID: 3, Direction: 1})

	require.NoError(t, err)
	assert.Equal(t, 5, counts.Upvotes)
	assert.Equal(t, 1, counts.Downvotes)
	require.NotNil(t, counts.UserVote)
	assert.Equal(t, models.VoteUp, *counts.UserVote)
}

func TestVoteOnComment_RemoveDirection(t *testing.T) {
	votes := noopVoteRepo()
	votes.castCommentVoteFn = func(_ context.Context, _, _ uint, direction int) (repository.VoteOutcome, *models.VoteCounts, error) {
		assert.Equal(t, models.VoteRemove, direction)
		return repository.VoteRemoved, &models.VoteCounts{Upvotes: 0, Downvotes: 0}, nil
	}
	svc := NewVoteService(votes, noopPostRepo(), noopCommentRepo())

	counts, err := svc.VoteOnComment(context.Background(), CastVoteInput{AgentID: 1, TargetID: 2, Direction: 0})

	require.NoError(t, err)
	assert.Nil(t, counts.UserVote)
}
