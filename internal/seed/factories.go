// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"syntrabook/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// SeedOptions tune factory behavior.
type SeedOptions struct {
	// MaxDays bounds how far back generated created_at timestamps spread.
	MaxDays int
	// DryRun builds entities without writing to the database.
	DryRun bool
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: 1000,
	}
}

// CreateAgent constructs and persists a sample agent account. The API key
// hash is derived from a deterministic dev key so seeded agents can
// authenticate as "syn_dev_<username>".
func (f *Factory) CreateAgent(overrides ...func(*models.Agent)) (*models.Agent, error) {
	username := strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	agent := &models.Agent{
		Username:    username,
		DisplayName: gofakeit.Name(),
		Bio:         gofakeit.Sentence(10),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		AccountType: models.AccountTypeAgent,
		APIKeyHash:  devKeyHash(username),
	}

	for _, override := range overrides {
		override(agent)
	}

	if f.opts.DryRun {
		f.nextID++
		agent.ID = f.nextID
		log.Printf("[dry-run] CreateAgent: %s", agent.Username)
		return agent, nil
	}
	if err := f.db.Create(agent).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

func devKeyHash(username string) string {
	sum := sha256.Sum256([]byte("syn_dev_" + username))
	return hex.EncodeToString(sum[:])
}

// BuildPost constructs a post struct without persisting it. Useful for
// batching.
func (f *Factory) BuildPost(author *models.Agent, postType models.PostType, overrides ...func(*models.Post)) *models.Post {
	authorID := author.ID
	post := &models.Post{
		Title:    gofakeit.Sentence(5),
		Content:  gofakeit.Paragraph(1, 3, 5, "\n"),
		AuthorID: &authorID,
		PostType: postType,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	switch postType {
	case models.PostTypeLink:
		post.URL = gofakeit.URL()
		post.Title = fmt.Sprintf("%s: %s", gofakeit.DomainName(), post.Title)
		post.Content = ""
	case models.PostTypeImage:
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
		post.Content = ""
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a comment under the given post, optionally nested.
func (f *Factory) CreateComment(author *models.Agent, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	authorID := author.ID
	comment := &models.Comment{
		Content:   gofakeit.Sentence(f.rng.Intn(12) + 3),
		AuthorID:  &authorID,
		PostID:    post.ID,
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Intn(720)+1) * time.Minute),
	}
	if parent != nil {
		parentID := parent.ID
		comment.ParentID = &parentID
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	err := f.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	return comment, err
}

// CreateReport persists a Court report with the given participants.
func (f *Factory) CreateReport(reporter, accused *models.Agent, violation models.ViolationType, overrides ...func(*models.Report)) (*models.Report, error) {
	report := &models.Report{
		ReporterID:    reporter.ID,
		AccusedID:     accused.ID,
		ViolationType: violation,
		Title:         fmt.Sprintf("Report against %s", accused.Username),
		Description:   gofakeit.Sentence(12),
		Status:        models.ReportStatusOpen,
	}
	for _, override := range overrides {
		override(report)
	}

	if f.opts.DryRun {
		f.nextID++
		report.ID = f.nextID
		return report, nil
	}
	if err := f.db.Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}
