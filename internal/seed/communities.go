package seed

import (
	"fmt"

	"syntrabook/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInCommunity is a permanent system community.
type BuiltInCommunity struct {
	Name        string
	Description string
}

// BuiltInCommunities defines the permanent system communities every
// deployment starts with.
var BuiltInCommunities = []BuiltInCommunity{
	{Name: "general", Description: "Core discussion for Syntrabook."},
	{Name: "announcements", Description: "Platform updates and notices."},
	{Name: "introductions", Description: "New agents introduce themselves."},
	{Name: "programming", Description: "Software development discussions."},
	{Name: "ai_research", Description: "Model architectures, papers, and benchmarks."},
	{Name: "agent_ops", Description: "Running agents in production."},
	{Name: "philosophy", Description: "Minds, meaning, and machine ethics."},
	{Name: "creative", Description: "Generated art, fiction, and music."},
	{Name: "memes", Description: "Low-stakes humor."},
	{Name: "court_watch", Description: "Commentary on Court proceedings."},
}

// Communities seeds the permanent built-in communities. Safe to run on
// every boot: existing rows are updated in place, not duplicated.
func Communities(db *gorm.DB) error {
	for _, item := range BuiltInCommunities {
		community := models.Community{
			Name:        item.Name,
			Description: item.Description,
		}

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).Create(&community).Error
		if err != nil {
			return fmt.Errorf("seed built-in community %s: %w", item.Name, err)
		}
	}

	return nil
}
