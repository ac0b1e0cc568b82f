package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/bryanwahyu/medverify/internal/domain/reports"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save insert/update record verifikasi
func (r *ReportRepository) Save(ctx context.Context, rec *reports.Record) error {
	const q = `
INSERT INTO verification_reports
(exchange_id, tenant_id, status, runs, last_error,
 exchange_json, verdict_json, report_json, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), runs=VALUES(runs), last_error=VALUES(last_error),
 verdict_json=VALUES(verdict_json), report_json=VALUES(report_json),
 updated_at=VALUES(updated_at);
`
	exchangeJSON, err := json.Marshal(rec.Exchange)
	if err != nil {
		return err
	}
	verdictJSON, err := marshalNullable(rec.Verdict)
	if err != nil {
		return err
	}
	reportJSON, err := marshalNullable(rec.Report)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, q,
		rec.ExchangeID, rec.TenantID, rec.Status, rec.Runs, rec.LastError,
		exchangeJSON, verdictJSON, reportJSON, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// Find by tenant + exchange id
func (r *ReportRepository) Find(ctx context.Context, tenantID string, id verification.ExchangeID) (*reports.Record, error) {
	const q = `
SELECT exchange_id, tenant_id, status, runs, last_error,
       exchange_json, verdict_json, report_json, created_at, updated_at
FROM verification_reports
WHERE tenant_id=? AND exchange_id=? LIMIT 1;
`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reports.ErrNotFound
	}
	return rec, err
}

// Latest records per tenant, newest update first
func (r *ReportRepository) Latest(ctx context.Context, tenantID string, limit int) ([]*reports.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT exchange_id, tenant_id, status, runs, last_error,
       exchange_json, verdict_json, report_json, created_at, updated_at
FROM verification_reports
WHERE tenant_id=? ORDER BY updated_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*reports.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*reports.Record, error) {
	var rec reports.Record
	var exchangeJSON, verdictJSON, reportJSON sql.NullString
	if err := row.Scan(
		&rec.ExchangeID, &rec.TenantID, &rec.Status, &rec.Runs, &rec.LastError,
		&exchangeJSON, &verdictJSON, &reportJSON, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if exchangeJSON.Valid && exchangeJSON.String != "" {
		if err := json.Unmarshal([]byte(exchangeJSON.String), &rec.Exchange); err != nil {
			return nil, err
		}
	}
	if verdictJSON.Valid && verdictJSON.String != "" {
		rec.Verdict = &verification.RiskVerdict{}
		if err := json.Unmarshal([]byte(verdictJSON.String), rec.Verdict); err != nil {
			return nil, err
		}
	}
	if reportJSON.Valid && reportJSON.String != "" {
		rec.Report = &reports.Report{}
		if err := json.Unmarshal([]byte(reportJSON.String), rec.Report); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

// marshalNullable keeps NULL in the column for absent values instead of "null"
func marshalNullable(v any) (any, error) {
	switch x := v.(type) {
	case *verification.RiskVerdict:
		if x == nil {
			return nil, nil
		}
	case *reports.Report:
		if x == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
