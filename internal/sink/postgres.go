package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

// upsertEntity writes one record keyed on doc_number, the engine's global
// idempotence key. Re-crawling the same entity updates in place.
const upsertEntity = `
INSERT INTO entities (
	entity_name, doc_number, entity_type, date_filed, effective_date,
	fei_ein, last_event, event_date_filed, event_effective_date,
	registered_agent, registered_agent_address,
	principal_address, mailing_address, principal_city, status, officers_json
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (doc_number) DO UPDATE SET
	entity_name = EXCLUDED.entity_name,
	entity_type = EXCLUDED.entity_type,
	date_filed = EXCLUDED.date_filed,
	effective_date = EXCLUDED.effective_date,
	fei_ein = EXCLUDED.fei_ein,
	last_event = EXCLUDED.last_event,
	event_date_filed = EXCLUDED.event_date_filed,
	event_effective_date = EXCLUDED.event_effective_date,
	registered_agent = EXCLUDED.registered_agent,
	registered_agent_address = EXCLUDED.registered_agent_address,
	principal_address = EXCLUDED.principal_address,
	mailing_address = EXCLUDED.mailing_address,
	principal_city = EXCLUDED.principal_city,
	status = EXCLUDED.status,
	officers_json = EXCLUDED.officers_json`

// PgxPool is the slice of pgxpool.Pool the sink uses; pgxmock satisfies it in
// tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres upserts admitted records into the entities table.
type Postgres struct {
	pool PgxPool
}

// NewPostgres connects a pool from dsn and pings it.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (or a mock).
func NewPostgresWithPool(pool PgxPool) *Postgres {
	return &Postgres{pool: pool}
}

// Keep upserts one record.
func (p *Postgres) Keep(ctx context.Context, rec registry.Record) error {
	officers, err := json.Marshal(rec.Officers)
	if err != nil {
		return fmt.Errorf("marshal officers: %w", err)
	}
	_, err = p.pool.Exec(ctx, upsertEntity,
		rec.Name,
		rec.DocNumber,
		nullable(rec.EntityType),
		rec.FilingDate,
		rec.EffectiveDate,
		nullable(rec.FEIEIN),
		nullable(rec.LastEvent),
		rec.EventDateFiled,
		rec.EventEffectiveDate,
		nullable(rec.RegisteredAgentName),
		nullable(rec.RegisteredAgentAddress),
		nullable(rec.PrincipalAddress),
		nullable(rec.MailingAddress),
		nullable(rec.City),
		nullable(rec.Status),
		string(officers),
	)
	if err != nil {
		return fmt.Errorf("upsert entity %s: %w", rec.DocNumber, err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close(context.Context) error {
	p.pool.Close()
	return nil
}

// nullable maps empty strings onto NULL so absent fields stay absent in the
// table rather than becoming empty text.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
