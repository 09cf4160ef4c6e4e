package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/resilience"
)

// Postgres reads one document per row of a table: the name column labels
// the document and the body column is tokenized.
type Postgres struct {
	client *postgres.Client
	cfg    config.PostgresSourceConfig
	logger *slog.Logger
}

func NewPostgres(client *postgres.Client, cfg config.PostgresSourceConfig) *Postgres {
	return &Postgres{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "postgres-source", "table", cfg.Table),
	}
}

func (p *Postgres) Name() string { return "postgres:" + p.cfg.Table }

// Query returns the SELECT statement used to read the table. Identifiers
// are quoted, so a schema-qualified table name is accepted.
func (p *Postgres) Query() string {
	return buildQuery(p.cfg)
}

func buildQuery(cfg config.PostgresSourceConfig) string {
	parts := strings.Split(cfg.Table, ".")
	for i, part := range parts {
		parts[i] = pq.QuoteIdentifier(part)
	}
	name := pq.QuoteIdentifier(cfg.NameColumn)
	body := pq.QuoteIdentifier(cfg.BodyColumn)
	return fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s", name, body, strings.Join(parts, "."), name)
}

func (p *Postgres) Load(ctx context.Context) ([]Document, error) {
	query := p.Query()
	var docs []Document
	err := resilience.Retry(ctx, "postgres-source", resilience.RetryConfig{
		MaxAttempts: p.cfg.Retries,
		Retryable:   retryablePQ,
	}, func(ctx context.Context) error {
		docs = docs[:0]
		return p.client.ReadTx(ctx, func(tx *sql.Tx) error {
			rows, err := tx.QueryContext(ctx, query)
			if err != nil {
				return fmt.Errorf("querying %s: %w", p.cfg.Table, err)
			}
			defer rows.Close()
			for rows.Next() {
				var name string
				var body sql.NullString
				if err := rows.Scan(&name, &body); err != nil {
					return fmt.Errorf("scanning row: %w", err)
				}
				docs = append(docs, Document{Name: name, Words: tokenizer.Tokenize(name, body.String)})
			}
			return rows.Err()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	p.logger.Info("table loaded", "rows", len(docs))
	return docs, nil
}

// retryablePQ keeps retrying connection problems but gives up on errors
// the server reports about the statement itself, such as a missing table.
func retryablePQ(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return true
	}
	switch pqErr.Code.Class() {
	case "42", "22", "28":
		return false
	}
	return true
}
