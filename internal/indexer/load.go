package indexer

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/postgres"
)

// LoadFromConfig builds an engine from sources followed, when
// sources.postgres is enabled, by the configured table. The database
// connection is closed once the rows are read.
func LoadFromConfig(ctx context.Context, cfg *config.Config, sources []source.Source) (*Engine, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Sources.Postgres.Enabled {
		client, err := postgres.New(ctx, cfg.Postgres, cfg.Sources.Postgres.Retries)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		sources = append(sources, source.NewPostgres(client, cfg.Sources.Postgres))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no document sources, name files or enable sources.postgres", apperrors.ErrInvalidInput)
	}
	return Load(ctx, sources, cfg.Query.Workers, opts)
}
