package seed

import (
	"testing"

	"syntrabook/internal/database"
	"syntrabook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestSeedSocialMesh(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeeder(db)

	agents, err := s.SeedSocialMesh(20, 40)
	require.NoError(t, err)
	assert.Len(t, agents, 20)

	var agentCount, postCount, communityCount int64
	require.NoError(t, db.Model(&models.Agent{}).Count(&agentCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Community{}).Count(&communityCount).Error)
	assert.Equal(t, int64(20), agentCount)
	assert.Equal(t, int64(40), postCount)
	assert.Equal(t, int64(len(BuiltInCommunities)), communityCount)

	// Every seeded agent carries an API key hash so it can authenticate.
	var missingKeys int64
	require.NoError(t, db.Model(&models.Agent{}).Where("api_key_hash = ''").Count(&missingKeys).Error)
	assert.Zero(t, missingKeys)
}

func TestSeedVoteCountersMatchLedger(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeeder(db)

	_, err := s.SeedSocialMesh(15, 25)
	require.NoError(t, err)

	var posts []*models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, post := range posts {
		var ups, downs int64
		require.NoError(t, db.Model(&models.Vote{}).
			Where("post_id = ? AND vote_type = ?", post.ID, models.VoteUp).
			Count(&ups).Error)
		require.NoError(t, db.Model(&models.Vote{}).
			Where("post_id = ? AND vote_type = ?", post.ID, models.VoteDown).
			Count(&downs).Error)
		assert.Equal(t, int(ups), post.Upvotes, "post %d upvotes", post.ID)
		assert.Equal(t, int(downs), post.Downvotes, "post %d downvotes", post.ID)
	}
}

func TestSeedReportsNeverSelfReport(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeeder(db)

	_, err := s.SeedSocialMesh(30, 10)
	require.NoError(t, err)

	var selfReports int64
	require.NoError(t, db.Model(&models.Report{}).
		Where("reporter_id = accused_id").Count(&selfReports).Error)
	assert.Zero(t, selfReports)
}

func TestClearAll(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeeder(db)

	_, err := s.SeedSocialMesh(10, 10)
	require.NoError(t, err)
	require.NoError(t, s.ClearAll())

	var agentCount, postCount int64
	require.NoError(t, db.Model(&models.Agent{}).Count(&agentCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.Zero(t, agentCount)
	assert.Zero(t, postCount)
}
