package providers

import (
	"errors"

	"github.com/samber/do/v2"

	"github.com/chrisbillows/readwise-local-plus/internal/config"
	"github.com/chrisbillows/readwise-local-plus/internal/logger"
	"github.com/chrisbillows/readwise-local-plus/internal/pipeline"
	"github.com/chrisbillows/readwise-local-plus/internal/readwise"
)

// ErrMissingAPIToken is returned when a sync is requested without a
// configured Readwise API token.
var ErrMissingAPIToken = errors.New("READWISE_API_TOKEN is not set")

// ProvideReadwiseClient provides the Readwise export API client.
func ProvideReadwiseClient(i do.Injector) (*readwise.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Readwise.APIToken == "" {
		return nil, ErrMissingAPIToken
	}

	var opts []readwise.Option
	if cfg.Readwise.BaseURL != "" {
		opts = append(opts, readwise.WithBaseURL(cfg.Readwise.BaseURL))
	}

	return readwise.New(cfg.Readwise.APIToken, log.Logger, opts...), nil
}

// ProvidePipeline assembles the sync pipeline from the client and the store.
func ProvidePipeline(i do.Injector) (*pipeline.Pipeline, error) {
	client := do.MustInvoke[*readwise.Client](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return pipeline.New(pipeline.Config{
		Fetch:  client.Export,
		Store:  storeHandle.Store,
		Logger: log.Logger,
	}), nil
}
