package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

// fakeStore records the single ApplySync call a run should make.
type fakeStore struct {
	lastFetch    *time.Time
	lastFetchErr error
	applyErr     error

	applyCalls   int
	appliedSet   *domain.SyncSet
	appliedStart time.Time
	appliedEnd   time.Time
}

func (f *fakeStore) LastFetch(ctx context.Context) (*time.Time, error) {
	return f.lastFetch, f.lastFetchErr
}

func (f *fakeStore) ApplySync(ctx context.Context, set *domain.SyncSet, start, end time.Time) (*domain.SyncResult, error) {
	f.applyCalls++
	f.appliedSet = set
	f.appliedStart = start
	f.appliedEnd = end
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &domain.SyncResult{
		BatchID:            1,
		WriteTime:          time.Now().UTC(),
		BooksInserted:      len(set.Books),
		HighlightsInserted: len(set.Highlights),
	}, nil
}

func newTestPipeline(fetch FetchFunc, store *fakeStore) *Pipeline {
	return New(Config{
		Fetch:  fetch,
		Store:  store,
		Logger: slog.New(slog.DiscardHandler),
	})
}

// staticFetch returns the given payload and captures the watermark it was
// called with.
func staticFetch(payload []domain.Record, gotAfter **time.Time) FetchFunc {
	return func(ctx context.Context, updatedAfter *time.Time) ([]domain.Record, error) {
		if gotAfter != nil {
			*gotAfter = updatedAfter
		}
		return payload, nil
	}
}

func exportPayload() []domain.Record {
	book := nestedBook(1)
	book["book_tags"] = []any{map[string]any{"id": int64(10), "name": "sf"}}
	tagged := nestedHighlight(100, 1)
	tagged["tags"] = []any{map[string]any{"id": int64(500), "name": "opening-lines"}}
	book["highlights"] = []any{tagged}
	return []domain.Record{book}
}

func TestRunFirstSyncFetchesEverything(t *testing.T) {
	var gotAfter *time.Time
	store := &fakeStore{}

	_, err := newTestPipeline(staticFetch(nil, &gotAfter), store).Run(context.Background())

	require.NoError(t, err)
	assert.Nil(t, gotAfter, "first run has no watermark")
}

func TestRunIncrementalFetchUsesWatermark(t *testing.T) {
	watermark := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	var gotAfter *time.Time
	store := &fakeStore{lastFetch: &watermark}

	_, err := newTestPipeline(staticFetch(nil, &gotAfter), store).Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, gotAfter)
	assert.True(t, gotAfter.Equal(watermark))
}

func TestRunEmptyFetchStillAppliesSync(t *testing.T) {
	store := &fakeStore{}

	result, err := newTestPipeline(staticFetch(nil, nil), store).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, store.applyCalls, "batch and watermark are recorded even when nothing changed")
	assert.True(t, store.appliedSet.Empty())
	assert.Equal(t, int64(1), result.BatchID)
}

func TestRunFetchErrorLeavesStoreUntouched(t *testing.T) {
	fetchErr := errors.New("readwise is down")
	fetch := func(ctx context.Context, updatedAfter *time.Time) ([]domain.Record, error) {
		return nil, fetchErr
	}
	store := &fakeStore{}

	_, err := newTestPipeline(fetch, store).Run(context.Background())

	require.ErrorIs(t, err, fetchErr)
	assert.Equal(t, 0, store.applyCalls)
}

func TestRunWatermarkReadErrorPropagates(t *testing.T) {
	readErr := errors.New("database locked")
	store := &fakeStore{lastFetchErr: readErr}

	_, err := newTestPipeline(staticFetch(nil, nil), store).Run(context.Background())

	require.ErrorIs(t, err, readErr)
	assert.Equal(t, 0, store.applyCalls)
}

func TestRunStoreErrorPropagates(t *testing.T) {
	applyErr := errors.New("constraint violation")
	store := &fakeStore{applyErr: applyErr}

	_, err := newTestPipeline(staticFetch(exportPayload(), nil), store).Run(context.Background())

	require.ErrorIs(t, err, applyErr)
}

func TestRunConvertsPayloadToEntities(t *testing.T) {
	store := &fakeStore{}

	_, err := newTestPipeline(staticFetch(exportPayload(), nil), store).Run(context.Background())
	require.NoError(t, err)

	set := store.appliedSet
	require.Len(t, set.Books, 1)
	require.Len(t, set.BookTags, 1)
	require.Len(t, set.Highlights, 1)
	require.Len(t, set.HighlightTags, 1)

	book := set.Books[0]
	assert.Equal(t, int64(1), book.UserBookID)
	require.NotNil(t, book.Title)
	assert.Equal(t, "The Dispossessed", *book.Title)

	highlight := set.Highlights[0]
	assert.Equal(t, int64(100), highlight.ID)
	assert.Equal(t, int64(1), highlight.BookID)

	tag := set.HighlightTags[0]
	assert.Equal(t, int64(500), tag.ID)
	assert.Equal(t, int64(100), tag.HighlightID)
}

func TestRunCarriesInvalidRecordsThrough(t *testing.T) {
	// A minimal book fails the field layer but must still reach the store.
	payload := []domain.Record{{"user_book_id": int64(7)}}
	store := &fakeStore{}

	_, err := newTestPipeline(staticFetch(payload, nil), store).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, store.appliedSet.Books, 1)
	book := store.appliedSet.Books[0]
	assert.Equal(t, int64(7), book.UserBookID)
	assert.False(t, book.Validated)
	assert.NotEmpty(t, book.ValidationErrors)
}

func TestRunFetchWindowBracketsCall(t *testing.T) {
	store := &fakeStore{}
	before := time.Now().UTC()

	_, err := newTestPipeline(staticFetch(nil, nil), store).Run(context.Background())
	require.NoError(t, err)

	after := time.Now().UTC()
	assert.False(t, store.appliedStart.Before(before))
	assert.False(t, store.appliedEnd.Before(store.appliedStart))
	assert.False(t, after.Before(store.appliedEnd))
}
