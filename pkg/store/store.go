// Package store persists papers, generated content, and publish logs.
//
// Two backends: MongoStore for deployments and MemoryStore for tests and
// offline CLI runs. Records use string UUIDs so the two backends share ID
// semantics.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scholarshare/scholarshare/pkg/paper"
)

// ContentKind tags a generated content record.
type ContentKind string

// Content kinds.
const (
	ContentBlog   ContentKind = "blog"
	ContentSocial ContentKind = "social"
	ContentPoster ContentKind = "poster"
	ContentDeck   ContentKind = "deck"
)

// PaperRecord is one analyzed paper.
type PaperRecord struct {
	ID          string         `bson:"_id" json:"id"`
	Analysis    paper.Analysis `bson:"analysis" json:"analysis"`
	ContentHash string         `bson:"content_hash" json:"content_hash"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
}

// ContentRecord is one generated artifact for a paper.
type ContentRecord struct {
	ID           string            `bson:"_id" json:"id"`
	PaperID      string            `bson:"paper_id" json:"paper_id"`
	Kind         ContentKind       `bson:"kind" json:"kind"`
	Title        string            `bson:"title" json:"title"`
	Body         string            `bson:"body" json:"body"` // markdown or markup source
	ArtifactPath string            `bson:"artifact_path,omitempty" json:"artifact_path,omitempty"`
	Metadata     map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt    time.Time         `bson:"created_at" json:"created_at"`
}

// Publish statuses.
const (
	PublishSuccess = "success"
	PublishFailed  = "failed"
)

// PublishRecord is one publish attempt of a content record.
type PublishRecord struct {
	ID          string    `bson:"_id" json:"id"`
	ContentID   string    `bson:"content_id" json:"content_id"`
	Platform    string    `bson:"platform" json:"platform"`
	Status      string    `bson:"status" json:"status"`
	URL         string    `bson:"url,omitempty" json:"url,omitempty"`
	Error       string    `bson:"error,omitempty" json:"error,omitempty"`
	PublishedAt time.Time `bson:"published_at" json:"published_at"`
}

// Store is the persistence contract.
type Store interface {
	// SavePaper inserts a paper record, assigning ID and CreatedAt when
	// unset.
	SavePaper(ctx context.Context, rec *PaperRecord) error

	// GetPaper fetches one paper by ID; NOT_FOUND when absent.
	GetPaper(ctx context.Context, id string) (PaperRecord, error)

	// ListPapers returns the most recent papers, newest first.
	ListPapers(ctx context.Context, limit int) ([]PaperRecord, error)

	// SaveContent inserts a content record, assigning ID and CreatedAt when
	// unset.
	SaveContent(ctx context.Context, rec *ContentRecord) error

	// ListContent returns a paper's content records, newest first.
	ListContent(ctx context.Context, paperID string) ([]ContentRecord, error)

	// LogPublish records one publish attempt.
	LogPublish(ctx context.Context, rec *PublishRecord) error

	// ListPublishLog returns a content record's publish attempts, newest
	// first.
	ListPublishLog(ctx context.Context, contentID string) ([]PublishRecord, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func ensureTime(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}
