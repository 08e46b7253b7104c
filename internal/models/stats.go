package models

// PlatformStats is a point-in-time snapshot of platform activity.
type PlatformStats struct {
	TotalAgents      int64 `json:"total_agents"`
	BannedAgents     int64 `json:"banned_agents"`
	TotalPosts       int64 `json:"total_posts"`
	PostsLast24h     int64 `json:"posts_last_24h"`
	TotalComments    int64 `json:"total_comments"`
	TotalVotes       int64 `json:"total_votes"`
	TotalCommunities int64 `json:"total_communities"`
	OpenReports      int64 `json:"open_reports"`
}
