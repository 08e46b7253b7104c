package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	AgentKeyPrefix       = "agent:%d"
	PostKeyPrefix        = "post:%d"
	CommunityKeyPrefix   = "community:%s"
	LeaderboardKey       = "court:leaderboard"
	PlatformStatsKey     = "platform:stats"
	FeedPageKeyPrefix    = "feed:%s:%s:%d:%d"
	CommentTreeKeyPrefix = "post:%d:comments"
)

const (
	AgentTTL         = 5 * time.Minute
	PostTTL          = 30 * time.Minute
	CommunityTTL     = 10 * time.Minute
	LeaderboardTTL   = 1 * time.Minute
	PlatformStatsTTL = 1 * time.Minute
	FeedPageTTL      = 30 * time.Second
	CommentTreeTTL   = 2 * time.Minute
)

func AgentKey(agentID uint) string {
	return fmt.Sprintf(AgentKeyPrefix, agentID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func CommunityKey(name string) string {
	return fmt.Sprintf(CommunityKeyPrefix, name)
}

// FeedPageKey identifies one anonymous feed page. Personalized feeds are
// never cached since they depend on the viewer.
func FeedPageKey(sort, window string, page, limit int) string {
	return fmt.Sprintf(FeedPageKeyPrefix, sort, window, page, limit)
}

func CommentTreeKey(postID uint) string {
	return fmt.Sprintf(CommentTreeKeyPrefix, postID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateAgent(ctx context.Context, agentID uint) {
	Invalidate(ctx, AgentKey(agentID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	Invalidate(ctx, CommentTreeKey(postID))
}

func InvalidateCommunity(ctx context.Context, name string) {
	Invalidate(ctx, CommunityKey(name))
}

func InvalidateLeaderboard(ctx context.Context) {
	Invalidate(ctx, LeaderboardKey)
}

// InvalidateFeedPages drops every cached feed page. Called on post and
// post-vote mutations so a cached page never outlives the ordering it froze.
func InvalidateFeedPages(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "feed:*", 0).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
