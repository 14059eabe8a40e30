// Package main provides the entry point for the readwise-local-plus CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/chrisbillows/readwise-local-plus/internal/di"
	"github.com/chrisbillows/readwise-local-plus/internal/di/providers"
	"github.com/chrisbillows/readwise-local-plus/internal/logger"
	"github.com/chrisbillows/readwise-local-plus/internal/pipeline"
	"github.com/chrisbillows/readwise-local-plus/internal/search"
)

func main() {
	args := os.Args[1:]
	command := "sync"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}

	var err error
	switch command {
	case "sync":
		err = runSync(args)
	case "search":
		err = runSearch(args)
	case "reindex":
		err = runReindex(args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `readwise-local-plus - local mirror of your Readwise library

Usage:
  readwise-local-plus [sync] [flags]     fetch updates and reconcile the local database
  readwise-local-plus search [flags] <query...>
  readwise-local-plus reindex [flags]    rebuild the search index from the database
  readwise-local-plus help

Sync flags cover configuration (-data-path, -log-level, -api-token, ...).
Search flags: -category, -color, -tag, -favorites, -recent, -limit.
`)
}

// shutdown tears the container down, logging rather than failing: the work
// is already committed by the time it runs.
func shutdown(injector *do.RootScope, log *logger.Logger) {
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

func runSync(args []string) error {
	injector := di.NewContainer(args)

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return err
	}
	defer shutdown(injector, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe, err := do.Invoke[*pipeline.Pipeline](injector)
	if err != nil {
		return err
	}

	result, err := pipe.Run(ctx)
	if err != nil {
		return err
	}

	if err := providers.RebuildSearchIndex(ctx, injector); err != nil {
		// The database is the source of truth; a failed reindex is
		// recoverable with the reindex command.
		log.Error("search reindex failed, run 'reindex' to retry", "error", err)
	}

	fmt.Printf("Sync complete (batch %d): %d books new, %d changed; %d highlights new, %d changed; %d tags added.\n",
		result.BatchID,
		result.BooksInserted, result.BooksVersioned,
		result.HighlightsInserted, result.HighlightsVersioned,
		result.BookTagsInserted+result.HighlightTagsInserted,
	)
	return nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	category := fs.String("category", "", "Filter by book category (books, articles, tweets, podcasts)")
	color := fs.String("color", "", "Filter by highlight color")
	tag := fs.String("tag", "", "Filter by tag name")
	favorites := fs.Bool("favorites", false, "Only favorited highlights")
	recent := fs.Bool("recent", false, "Sort by highlight date instead of relevance")
	limit := fs.Int("limit", 20, "Maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")

	injector := di.NewContainer(nil)

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return err
	}
	defer shutdown(injector, log)

	searchHandle, err := do.Invoke[*providers.SearchIndexHandle](injector)
	if err != nil {
		return err
	}

	params := search.DefaultSearchParams()
	params.Query = query
	params.Category = *category
	params.Color = *color
	if *tag != "" {
		params.Tags = []string{*tag}
	}
	params.FavoritesOnly = *favorites
	params.Limit = *limit
	if *recent {
		params.SortBy = "recent"
	}

	result, err := searchHandle.Index.Search(context.Background(), params)
	if err != nil {
		return err
	}

	printSearchResult(result)
	return nil
}

func runReindex(args []string) error {
	injector := di.NewContainer(args)

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return err
	}
	defer shutdown(injector, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return providers.RebuildSearchIndex(ctx, injector)
}

func printSearchResult(result *search.SearchResult) {
	if result.Total == 0 {
		fmt.Println("No highlights found.")
		return
	}

	fmt.Printf("%d highlights (%dms)\n\n", result.Total, result.TookMs)
	for _, hit := range result.Hits {
		source := hit.BookTitle
		if hit.Author != "" {
			source += " - " + hit.Author
		}
		fmt.Printf("[%d] %s\n", hit.HighlightID, source)
		fmt.Printf("    %s\n", hit.Text)
		if hit.Note != "" {
			fmt.Printf("    note: %s\n", hit.Note)
		}
		if len(hit.Tags) > 0 {
			fmt.Printf("    tags: %s\n", strings.Join(hit.Tags, ", "))
		}
		fmt.Println()
	}
}
