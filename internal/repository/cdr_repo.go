package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voxtel/cdrpipeline/internal/domain"
)

// ErrDuplicateCall is returned when inserting a CDR whose call_id is
// already stored.
var ErrDuplicateCall = errors.New("call_id already stored")

// ErrNotFound is returned when a lookup matches no stored CDR.
var ErrNotFound = errors.New("cdr not found")

const cdrColumns = `call_id, caller_number, called_number, start_time, end_time,
	duration_seconds, carrier_id, call_type, country_code, country_name,
	caller_prefix, called_prefix, cost, revenue, profit_margin,
	billable_seconds, rate_per_minute, successful, duration_mismatch, processed_at`

type CDRRepo struct {
	db *sql.DB
}

func NewCDRRepo(db *sql.DB) *CDRRepo {
	return &CDRRepo{db: db}
}

// Insert stores a priced CDR. A call_id collision returns ErrDuplicateCall.
func (r *CDRRepo) Insert(ctx context.Context, cdr *domain.CDR) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO cdrs (`+cdrColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		cdr.CallID, cdr.CallerNumber, cdr.CalledNumber,
		cdr.StartTime.UTC().Format(time.RFC3339), cdr.EndTime.UTC().Format(time.RFC3339),
		cdr.DurationSeconds, cdr.CarrierID, string(cdr.CallType),
		nullableString(cdr.CountryCode), nullableString(cdr.CountryName),
		cdr.CallerPrefix, cdr.CalledPrefix,
		cdr.Cost, cdr.Revenue, cdr.ProfitMargin,
		cdr.BillableSeconds, cdr.RatePerMinute,
		boolToInt(cdr.Successful), boolToInt(cdr.DurationMismatch),
		cdr.ProcessedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert cdr: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrDuplicateCall
	}
	return nil
}

// GetByCallID fetches one CDR. Soft-deleted records are not returned.
func (r *CDRRepo) GetByCallID(ctx context.Context, callID string) (*domain.CDR, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cdrColumns+` FROM cdrs WHERE call_id = ? AND deleted_at IS NULL`, callID)
	cdr, err := scanCDR(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return cdr, err
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	CarrierID   string
	CountryCode string
	CallType    string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// List returns stored CDRs newest first, plus the total matching count.
func (r *CDRRepo) List(ctx context.Context, f Filter) ([]domain.CDR, int, error) {
	where, args := buildCDRWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cdrs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := "SELECT " + cdrColumns + " FROM cdrs" + where +
		" ORDER BY processed_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var cdrs []domain.CDR
	for rows.Next() {
		cdr, err := scanCDR(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		cdrs = append(cdrs, *cdr)
	}
	return cdrs, total, rows.Err()
}

// All streams every live CDR (oldest first) to fn. Used for export and for
// rebuilding aggregate state at startup.
func (r *CDRRepo) All(ctx context.Context, fn func(*domain.CDR) error) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cdrColumns+` FROM cdrs WHERE deleted_at IS NULL ORDER BY processed_at ASC`)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		cdr, err := scanCDR(rows.Scan)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := fn(cdr); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SoftDelete marks a CDR deleted without removing the row. Returns
// ErrNotFound if the call_id does not exist or is already deleted.
func (r *CDRRepo) SoftDelete(ctx context.Context, callID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cdrs SET deleted_at = ? WHERE call_id = ? AND deleted_at IS NULL",
		time.Now().UTC().Format(time.RFC3339), callID)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of live CDRs.
func (r *CDRRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cdrs WHERE deleted_at IS NULL").Scan(&count)
	return count, err
}

// --- helpers ---

func buildCDRWhere(f Filter) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	var args []any

	if f.CarrierID != "" {
		clauses = append(clauses, "carrier_id = ?")
		args = append(args, f.CarrierID)
	}
	if f.CountryCode != "" {
		clauses = append(clauses, "country_code = ?")
		args = append(args, f.CountryCode)
	}
	if f.CallType != "" {
		clauses = append(clauses, "call_type = ?")
		args = append(args, f.CallType)
	}
	if f.From != nil {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "start_time <= ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanCDR(scan func(...any) error) (*domain.CDR, error) {
	var cdr domain.CDR
	var callType, startTime, endTime, processedAt string
	var country, countryName sql.NullString
	var successful, mismatch int

	err := scan(
		&cdr.CallID, &cdr.CallerNumber, &cdr.CalledNumber, &startTime, &endTime,
		&cdr.DurationSeconds, &cdr.CarrierID, &callType, &country, &countryName,
		&cdr.CallerPrefix, &cdr.CalledPrefix, &cdr.Cost, &cdr.Revenue, &cdr.ProfitMargin,
		&cdr.BillableSeconds, &cdr.RatePerMinute, &successful, &mismatch, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	cdr.CallType = domain.CallType(callType)
	cdr.CountryCode = country.String
	cdr.CountryName = countryName.String
	cdr.Successful = successful != 0
	cdr.DurationMismatch = mismatch != 0
	cdr.StartTime, _ = time.Parse(time.RFC3339, startTime)
	cdr.EndTime, _ = time.Parse(time.RFC3339, endTime)
	cdr.ProcessedAt, _ = time.Parse(time.RFC3339, processedAt)

	return &cdr, nil
}
