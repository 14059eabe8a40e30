package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/chrisbillows/readwise-local-plus/internal/config"
	"github.com/chrisbillows/readwise-local-plus/internal/domain"
	"github.com/chrisbillows/readwise-local-plus/internal/logger"
	"github.com/chrisbillows/readwise-local-plus/internal/search"
)

// SearchIndexHandle wraps the search index for lifecycle management.
type SearchIndexHandle struct {
	Index *search.SearchIndex
}

// Shutdown closes the search index.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Index.Close()
}

// ProvideSearchIndex creates or opens the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	idx, err := search.NewSearchIndex(search.Options{
		IndexPath: cfg.Search.IndexPath,
		Logger:    log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	return &SearchIndexHandle{Index: idx}, nil
}

// RebuildSearchIndex drops the index and reindexes every live, non-deleted,
// validated highlight from the database with its book and tag context.
func RebuildSearchIndex(ctx context.Context, i do.Injector) error {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)

	if err := searchHandle.Index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	books, err := storeHandle.Store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	booksByID := make(map[int64]*domain.Book, len(books))
	for _, b := range books {
		booksByID[b.UserBookID] = b
	}

	highlights, err := storeHandle.Store.ListHighlights(ctx)
	if err != nil {
		return fmt.Errorf("list highlights: %w", err)
	}

	var docs []*search.SearchDocument
	for _, h := range highlights {
		if !h.Validated {
			continue
		}
		if h.IsDeleted != nil && *h.IsDeleted {
			continue
		}

		tags, err := storeHandle.Store.ListHighlightTags(ctx, h.ID)
		if err != nil {
			return fmt.Errorf("list highlight tags: %w", err)
		}
		tagNames := make([]string, 0, len(tags))
		for _, t := range tags {
			if t.Name != nil {
				tagNames = append(tagNames, *t.Name)
			}
		}

		docs = append(docs, search.HighlightToSearchDocument(h, booksByID[h.BookID], tagNames))
	}

	if err := searchHandle.Index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	log.Info("search index rebuilt", "documents", len(docs))
	return nil
}
