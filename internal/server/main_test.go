package server

import (
	"os"
	"testing"

	"syntrabook/internal/config"
	"syntrabook/internal/database"
	"syntrabook/internal/middleware"
	"syntrabook/internal/repository"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	middleware.InitMiddleware(&config.Config{JWTSecret: "handler-test-secret", Env: "test"})
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// newTestServer wires a Server over an in-memory database without the
// Prometheus middleware, which cannot be registered twice per process.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := setupTestDB(t)

	agentRepo := repository.NewAgentRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	reportRepo := repository.NewReportRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	s := &Server{
		config:        &config.Config{JWTSecret: "handler-test-secret", Env: "test"},
		db:            db,
		agentRepo:     agentRepo,
		postRepo:      postRepo,
		commentRepo:   commentRepo,
		voteRepo:      voteRepo,
		reportRepo:    reportRepo,
		communityRepo: communityRepo,
		statsRepo:     statsRepo,
	}
	s.agentService = service.NewAgentService(agentRepo)
	s.feedService = service.NewFeedService(postRepo)
	s.postService = service.NewPostService(postRepo, communityRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo, voteRepo)
	s.voteService = service.NewVoteService(voteRepo, postRepo, commentRepo)
	s.courtService = service.NewCourtService(reportRepo, agentRepo)
	s.communityService = service.NewCommunityService(communityRepo)
	s.statsService = service.NewStatsService(statsRepo)
	return s
}

// asAgent injects the given agent ID into request locals, standing in for
// the auth middleware.
func asAgent(agentID uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("agentID", agentID)
		return c.Next()
	}
}
