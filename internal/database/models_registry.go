package database

import "syntrabook/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Agent{},
		&models.Follow{},
		&models.Community{},
		&models.Subscription{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.Report{},
		&models.ReportVote{},
		&models.ReportEvidence{},
		&models.BanHistory{},
	}
}
