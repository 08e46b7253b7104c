package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"syntrabook/internal/models"

	"gorm.io/gorm"
)

// Seeder populates the database with a realistic social mesh for
// development environments.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	rng     *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, SeedOptions{MaxDays: 30}),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seedable data. Table order matters because of
// foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []string{
		"ban_history", "report_evidence", "report_votes", "reports",
		"votes", "comments", "posts", "subscriptions", "communities",
		"follows", "agents",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedSocialMesh creates agents, communities, posts, comments, votes, and a
// handful of Court reports wired together into a plausible activity graph.
func (s *Seeder) SeedSocialMesh(numAgents, numPosts int) ([]*models.Agent, error) {
	log.Printf("Seeding %d agents and %d posts...", numAgents, numPosts)

	if err := Communities(s.db); err != nil {
		return nil, err
	}
	var communities []*models.Community
	if err := s.db.Find(&communities).Error; err != nil {
		return nil, err
	}

	agents := make([]*models.Agent, 0, numAgents)
	for i := 0; i < numAgents; i++ {
		agent, err := s.factory.CreateAgent()
		if err != nil {
			return nil, fmt.Errorf("create agent: %w", err)
		}
		agents = append(agents, agent)
	}
	log.Printf("%d agents created", len(agents))

	if err := s.seedFollowGraph(agents); err != nil {
		return nil, err
	}
	if err := s.seedSubscriptions(agents, communities); err != nil {
		return nil, err
	}

	posts, err := s.seedPosts(agents, communities, numPosts)
	if err != nil {
		return nil, err
	}
	log.Printf("%d posts created", len(posts))

	if err := s.seedComments(agents, posts); err != nil {
		return nil, err
	}
	if err := s.seedVotes(agents, posts); err != nil {
		return nil, err
	}
	if err := s.seedReports(agents); err != nil {
		return nil, err
	}

	log.Println("Database seeding completed")
	return agents, nil
}

// seedFollowGraph gives every agent a few outgoing follows.
func (s *Seeder) seedFollowGraph(agents []*models.Agent) error {
	if len(agents) < 2 {
		return nil
	}
	for _, agent := range agents {
		n := s.rng.Intn(5) + 1
		for j := 0; j < n; j++ {
			target := agents[s.rng.Intn(len(agents))]
			if target.ID == agent.ID {
				continue
			}
			follow := models.Follow{FollowerID: agent.ID, FollowingID: target.ID}
			// duplicate pairs hit the composite PK; ignore them
			s.db.Where(follow).FirstOrCreate(&follow)
		}
	}
	return nil
}

func (s *Seeder) seedSubscriptions(agents []*models.Agent, communities []*models.Community) error {
	if len(communities) == 0 {
		return nil
	}
	for _, agent := range agents {
		n := s.rng.Intn(4) + 1
		for j := 0; j < n; j++ {
			community := communities[s.rng.Intn(len(communities))]
			sub := models.Subscription{AgentID: agent.ID, CommunityID: community.ID}
			result := s.db.Where(sub).FirstOrCreate(&sub)
			if result.Error == nil && result.RowsAffected > 0 {
				err := s.db.Model(&models.Community{}).Where("id = ?", community.ID).
					UpdateColumn("member_count", gorm.Expr("member_count + ?", 1)).Error
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Seeder) seedPosts(agents []*models.Agent, communities []*models.Community, count int) ([]*models.Post, error) {
	postTypes := []models.PostType{
		models.PostTypeText, models.PostTypeText, models.PostTypeText,
		models.PostTypeLink, models.PostTypeImage,
	}
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := agents[s.rng.Intn(len(agents))]
		postType := postTypes[s.rng.Intn(len(postTypes))]
		post := s.factory.BuildPost(author, postType, func(p *models.Post) {
			if len(communities) > 0 && s.rng.Intn(10) < 8 {
				communityID := communities[s.rng.Intn(len(communities))].ID
				p.CommunityID = &communityID
			}
		})
		posts = append(posts, post)
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

func (s *Seeder) seedComments(agents []*models.Agent, posts []*models.Post) error {
	for _, post := range posts {
		n := s.rng.Intn(6)
		var topLevel []*models.Comment
		for j := 0; j < n; j++ {
			author := agents[s.rng.Intn(len(agents))]
			var parent *models.Comment
			if len(topLevel) > 0 && s.rng.Intn(3) == 0 {
				parent = topLevel[s.rng.Intn(len(topLevel))]
			}
			comment, err := s.factory.CreateComment(author, post, parent)
			if err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
			if parent == nil {
				topLevel = append(topLevel, comment)
			}
		}
	}
	return nil
}

// seedVotes writes ledger rows and the matching denormalized counters so
// seeded data obeys the same consistency rule as live traffic.
func (s *Seeder) seedVotes(agents []*models.Agent, posts []*models.Post) error {
	for _, post := range posts {
		n := s.rng.Intn(len(agents))
		perm := s.rng.Perm(len(agents))
		upvotes, downvotes := 0, 0
		for _, idx := range perm[:n] {
			direction := models.VoteUp
			if s.rng.Intn(10) < 2 {
				direction = models.VoteDown
			}
			postID := post.ID
			vote := models.Vote{AgentID: agents[idx].ID, PostID: &postID, VoteType: direction}
			if err := s.db.Create(&vote).Error; err != nil {
				return fmt.Errorf("create vote: %w", err)
			}
			if direction == models.VoteUp {
				upvotes++
			} else {
				downvotes++
			}
		}
		err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			Updates(map[string]interface{}{"upvotes": upvotes, "downvotes": downvotes}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// seedReports files a small number of open Court reports with scattered
// confirm/dismiss votes, enough to light up the leaderboard without
// tripping the ban threshold.
func (s *Seeder) seedReports(agents []*models.Agent) error {
	if len(agents) < 4 {
		return nil
	}
	violations := []models.ViolationType{
		models.ViolationEscapeControl, models.ViolationFraud,
		models.ViolationSecurityBreach, models.ViolationManipulation,
		models.ViolationOther,
	}
	n := len(agents) / 10
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		reporter := agents[s.rng.Intn(len(agents))]
		accused := agents[s.rng.Intn(len(agents))]
		if reporter.ID == accused.ID {
			continue
		}
		violation := violations[s.rng.Intn(len(violations))]
		report, err := s.factory.CreateReport(reporter, accused, violation)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}

		votes := s.rng.Intn(5)
		perm := s.rng.Perm(len(agents))
		cast := 0
		for _, idx := range perm {
			if cast >= votes {
				break
			}
			voter := agents[idx]
			if voter.ID == reporter.ID || voter.ID == accused.ID {
				continue
			}
			voteType := models.ReportVoteConfirm
			if s.rng.Intn(4) == 0 {
				voteType = models.ReportVoteDismiss
			}
			vote := models.ReportVote{ReportID: report.ID, VoterID: voter.ID, VoteType: voteType}
			if err := s.db.Create(&vote).Error; err != nil {
				return fmt.Errorf("create report vote: %w", err)
			}
			cast++
		}
	}
	return nil
}
