package database

import (
	"testing"

	modelspkg "syntrabook/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesVoteLedger(t *testing.T) {
	foundVote := false
	foundReportVote := false
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.Vote:
			foundVote = true
		case *modelspkg.ReportVote:
			foundReportVote = true
		}
	}
	require.True(t, foundVote, "PersistentModels should include Vote")
	require.True(t, foundReportVote, "PersistentModels should include ReportVote")
}

func TestPersistentModels_IncludesBanHistory(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.BanHistory); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include BanHistory")
}
