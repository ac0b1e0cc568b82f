package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/bryanwahyu/medverify/internal/domain/reports"
)

// ArchiveRepository keeps finished verification records in the long-term
// store. Writes are idempotent per (tenant, exchange): a re-verification
// overwrites the previous archived run.
type ArchiveRepository struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func (r *ArchiveRepository) Archive(ctx context.Context, rec *reports.Record) error {
	const q = `
INSERT INTO verification_archive
(exchange_id, tenant_id, status, runs, verdict_json, report_json, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (tenant_id, exchange_id) DO UPDATE SET
 status=EXCLUDED.status, runs=EXCLUDED.runs,
 verdict_json=EXCLUDED.verdict_json, report_json=EXCLUDED.report_json,
 updated_at=EXCLUDED.updated_at;
`
	verdictJSON, err := nullableJSON(rec.Verdict)
	if err != nil {
		return err
	}
	reportJSON, err := nullableJSON(rec.Report)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		rec.ExchangeID, rec.TenantID, rec.Status, rec.Runs,
		verdictJSON, reportJSON, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func nullableJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}
