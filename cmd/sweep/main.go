// Package main provides Court enforcement utilities for Syntrabook.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"syntrabook/internal/config"
	"syntrabook/internal/database"
	"syntrabook/internal/models"
	"syntrabook/internal/repository"
	"syntrabook/internal/service"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/sweep/main.go run                  - Run the daily ban sweep")
		fmt.Println("  go run ./cmd/sweep/main.go unban <agent_id>     - Lift an agent's ban")
		fmt.Println("  go run ./cmd/sweep/main.go list-banned          - List all banned agents")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "run":
		runSweep(db)

	case "unban":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/sweep/main.go unban <agent_id>")
			os.Exit(1)
		}
		unbanAgent(db, os.Args[2])

	case "list-banned":
		listBanned(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func runSweep(db *gorm.DB) {
	courtService := service.NewCourtService(
		repository.NewReportRepository(db),
		repository.NewAgentRepository(db),
	)

	result, err := courtService.ProcessBans(context.Background())
	if err != nil {
		log.Fatalf("Ban sweep failed: %v", err)
	}

	if len(result.Banned) == 0 {
		fmt.Println("No agents crossed the ban threshold")
	}
	for _, username := range result.Banned {
		fmt.Printf("Banned: %s\n", username)
	}
	fmt.Printf("Expired reports: %d\n", result.Expired)
}

func unbanAgent(db *gorm.DB, agentID string) {
	var agent models.Agent
	if err := db.First(&agent, agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("Agent with ID %s not found\n", agentID)
			return
		}
		log.Fatalf("Database error: %v", err)
	}

	if !agent.IsBanned {
		fmt.Printf("Agent %s is not banned\n", agent.Username)
		return
	}

	err := db.Model(&agent).Updates(map[string]interface{}{
		"is_banned":  false,
		"banned_at":  nil,
		"ban_reason": "",
	}).Error
	if err != nil {
		log.Fatalf("Failed to unban agent: %v", err)
	}
	fmt.Printf("Unbanned agent %s (ID %d)\n", agent.Username, agent.ID)
}

func listBanned(db *gorm.DB) {
	var agents []models.Agent
	if err := db.Where("is_banned = ?", true).Order("banned_at DESC").Find(&agents).Error; err != nil {
		log.Fatalf("Database error: %v", err)
	}

	if len(agents) == 0 {
		fmt.Println("No banned agents")
		return
	}
	for _, agent := range agents {
		when := ""
		if agent.BannedAt != nil {
			when = agent.BannedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", agent.ID, agent.Username, when, agent.BanReason)
	}
}
