package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

// FetchFunc is the external fetch collaborator: given the last successful
// fetch time (nil on first run) it returns the raw nested book records from
// the Readwise export API. Credential handling lives behind this function.
type FetchFunc func(ctx context.Context, updatedAfter *time.Time) ([]domain.Record, error)

// Store is the persistence surface the pipeline needs. ApplySync owns the
// single transaction per run: batch row, reconciliation, write-time stamp and
// watermark advance commit or roll back together.
type Store interface {
	LastFetch(ctx context.Context) (*time.Time, error)
	ApplySync(ctx context.Context, set *domain.SyncSet, start, end time.Time) (*domain.SyncResult, error)
}

// Stages are the pure transformation steps of a run, injected for
// testability. Zero-valued entries fall back to the package defaults.
type Stages struct {
	ValidateNested func([]domain.Record) []domain.Record
	Flatten        func([]domain.Record) *Flattened
	ValidateFields func(*Flattened) *Flattened
}

func (s Stages) withDefaults() Stages {
	if s.ValidateNested == nil {
		s.ValidateNested = ValidateNested
	}
	if s.Flatten == nil {
		s.Flatten = Flatten
	}
	if s.ValidateFields == nil {
		s.ValidateFields = ValidateFields
	}
	return s
}

// Config assembles a Pipeline.
type Config struct {
	Fetch  FetchFunc
	Store  Store
	Stages Stages
	Logger *slog.Logger
}

// Pipeline orchestrates one sync run: fetch → validate-nested → flatten →
// validate-fields → reconcile-and-commit. Only the store stage has side
// effects.
type Pipeline struct {
	fetch  FetchFunc
	store  Store
	stages Stages
	logger *slog.Logger
}

// New creates a pipeline from cfg. Fetch and Store are mandatory.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetch:  cfg.Fetch,
		store:  cfg.Store,
		stages: cfg.Stages.withDefaults(),
		logger: logger,
	}
}

// Run executes one fetch-and-write cycle.
//
// The fetch window is stamped around the external call regardless of the
// result; on success the watermark advances to the window's end time even
// when the fetch was empty, so the same window is never re-fetched. A fetch
// error propagates before any transaction opens. A store error rolls the
// entire run back, watermark included, and propagates.
func (p *Pipeline) Run(ctx context.Context) (*domain.SyncResult, error) {
	log := p.logger.With("run_id", uuid.NewString())

	lastFetch, err := p.store.LastFetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("read last fetch watermark: %w", err)
	}
	if lastFetch != nil {
		log.Debug("incremental fetch", "updated_after", lastFetch.Format(time.RFC3339))
	} else {
		log.Debug("first fetch, no watermark")
	}

	start := time.Now().UTC()
	rawBooks, err := p.fetch(ctx, lastFetch)
	end := time.Now().UTC()
	if err != nil {
		return nil, fmt.Errorf("fetch readwise export: %w", err)
	}
	log.Info("fetch complete", "books", len(rawBooks))

	set := &domain.SyncSet{}
	if len(rawBooks) > 0 {
		nested := p.stages.ValidateNested(rawBooks)
		flat := p.stages.Flatten(nested)
		flat = p.stages.ValidateFields(flat)
		set = BuildSyncSet(flat)
	}

	result, err := p.store.ApplySync(ctx, set, start, end)
	if err != nil {
		return nil, fmt.Errorf("apply sync: %w", err)
	}

	log.Info("sync committed",
		"batch_id", result.BatchID,
		"books_inserted", result.BooksInserted,
		"books_versioned", result.BooksVersioned,
		"highlights_inserted", result.HighlightsInserted,
		"highlights_versioned", result.HighlightsVersioned,
		"book_tags_inserted", result.BookTagsInserted,
		"highlight_tags_inserted", result.HighlightTagsInserted,
	)
	return result, nil
}

// BuildSyncSet converts the validated flattened records into typed entities
// for reconciliation. One entity per record, valid or not.
func BuildSyncSet(flat *Flattened) *domain.SyncSet {
	set := &domain.SyncSet{}
	for _, rec := range flat.Books {
		set.Books = append(set.Books, domain.BookFromRecord(rec))
	}
	for _, rec := range flat.BookTags {
		set.BookTags = append(set.BookTags, domain.BookTagFromRecord(rec))
	}
	for _, rec := range flat.Highlights {
		set.Highlights = append(set.Highlights, domain.HighlightFromRecord(rec))
	}
	for _, rec := range flat.HighlightTags {
		set.HighlightTags = append(set.HighlightTags, domain.HighlightTagFromRecord(rec))
	}
	return set
}
