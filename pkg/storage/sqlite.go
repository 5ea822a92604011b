package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ogulcanaydogan/wattsense/pkg/model"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// seriesTables maps each sensor series to its table.
var seriesTables = map[model.Series]string{
	model.SeriesA: "sensor_data",
	model.SeriesB: "sensor_data_2",
}

// metricColumns whitelists the columns SumMetric may aggregate.
var metricColumns = map[model.Metric]string{
	model.MetricPrice:  "price",
	model.MetricEnergy: "energy",
}

// Option configures an SQLite store.
type Option func(*SQLite)

// WithLocation sets the time zone budget dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLite) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// SQLite implements the Storage interface using an SQLite database.
// Timestamps are stored as Unix milliseconds and budget dates as
// YYYY-MM-DD text in the configured location.
type SQLite struct {
	db  *sql.DB
	loc *time.Location
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string, opts ...Option) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serialises concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLite{db: db, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLite) FindUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var u model.User
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, email, name, created_at FROM users WHERE external_id = ?`, externalID,
	).Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", externalID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (s *SQLite) UpsertUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, external_id, email, name, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
		   email = excluded.email,
		   name = excluded.name
		 RETURNING id, created_at`,
		user.ID, user.ExternalID, user.Email, user.Name, toMillis(user.CreatedAt),
	).Scan(&user.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return nil
}

func (s *SQLite) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, external_id, email, name, created_at FROM users ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.CreatedAt = fromMillis(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

const budgetColumns = `id, user_id, amount, start_date, end_date, last_alert_sent, created_at, updated_at`

func (s *SQLite) FindBudgetByUser(ctx context.Context, userID string) (*model.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ?`, userID)
	b, err := s.scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget for user %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *SQLite) UpsertBudget(ctx context.Context, budget *model.Budget) (*model.Budget, error) {
	if !budget.Amount.IsPositive() {
		return nil, fmt.Errorf("upsert budget: amount must be positive, got %s", budget.Amount)
	}
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = now
	}
	budget.UpdatedAt = now

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO budgets (id, user_id, amount, start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   amount = excluded.amount,
		   start_date = excluded.start_date,
		   end_date = excluded.end_date,
		   updated_at = excluded.updated_at
		 RETURNING `+budgetColumns,
		budget.ID, budget.UserID, budget.Amount.String(),
		s.formatDate(budget.StartDate), s.formatDate(budget.EndDate),
		toMillis(budget.CreatedAt), toMillis(budget.UpdatedAt),
	)
	stored, err := s.scanBudget(row)
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return stored, nil
}

func (s *SQLite) UpdateBudgetAlertTimestamp(ctx context.Context, budgetID string, prev *time.Time, at time.Time) (bool, error) {
	var (
		result sql.Result
		err    error
	)
	if prev == nil {
		result, err = s.db.ExecContext(ctx,
			`UPDATE budgets SET last_alert_sent = ? WHERE id = ? AND last_alert_sent IS NULL`,
			toMillis(at), budgetID)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE budgets SET last_alert_sent = ? WHERE id = ? AND last_alert_sent = ?`,
			toMillis(at), budgetID, toMillis(*prev))
	}
	if err != nil {
		return false, fmt.Errorf("update budget alert timestamp: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *SQLite) ListBudgetsWithOwner(ctx context.Context) ([]model.BudgetWithOwner, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.amount, b.start_date, b.end_date, b.last_alert_sent, b.created_at, b.updated_at,
		        u.id, u.external_id, u.email, u.name, u.created_at
		 FROM budgets b JOIN users u ON u.id = b.user_id
		 ORDER BY b.created_at, b.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []model.BudgetWithOwner
	for rows.Next() {
		var item model.BudgetWithOwner
		var userCreated int64
		b, err := s.scanBudget(rows,
			&item.Owner.ID, &item.Owner.ExternalID, &item.Owner.Email, &item.Owner.Name, &userCreated)
		if err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		item.Budget = *b
		item.Owner.CreatedAt = fromMillis(userCreated)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLite) SumMetric(ctx context.Context, series model.Series, metric model.Metric, window model.Window) (float64, error) {
	table, ok := seriesTables[series]
	if !ok {
		return 0, fmt.Errorf("unknown series %q", series)
	}
	column, ok := metricColumns[metric]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metric)
	}

	query := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM %s", column, table)
	where, args := buildWindowClause(window)
	if where != "" {
		query += " WHERE " + where
	}

	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum %s over %s: %w", column, table, err)
	}
	return total, nil
}

func (s *SQLite) InsertReading(ctx context.Context, series model.Series, r *model.Reading) error {
	table, ok := seriesTables[series]
	if !ok {
		return fmt.Errorf("unknown series %q", series)
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	r.Series = series
	r.Sensor = series.Label()

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, ts, voltage, ampere, power, energy, pf, price)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table),
		r.ID, toMillis(r.Timestamp), r.Voltage, r.Ampere, r.Power, r.Energy, r.PowerFactor, r.Price,
	)
	if err != nil {
		return fmt.Errorf("insert reading into %s: %w", table, err)
	}
	return nil
}

func (s *SQLite) LatestReadings(ctx context.Context, series model.Series, limit int) ([]model.Reading, error) {
	table, ok := seriesTables[series]
	if !ok {
		return nil, fmt.Errorf("unknown series %q", series)
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, ts, voltage, ampere, power, energy, pf, price
		 FROM %s ORDER BY ts DESC LIMIT ?`, table), limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var readings []model.Reading
	for rows.Next() {
		var r model.Reading
		var ts int64
		if err := rows.Scan(&r.ID, &ts, &r.Voltage, &r.Ampere, &r.Power, &r.Energy, &r.PowerFactor, &r.Price); err != nil {
			return nil, fmt.Errorf("scan reading row: %w", err)
		}
		r.Timestamp = fromMillis(ts)
		r.Series = series
		r.Sensor = series.Label()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fetched newest first; charts want oldest first.
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanBudget scans budgetColumns followed by any extra destinations.
func (s *SQLite) scanBudget(row scanner, extra ...any) (*model.Budget, error) {
	var (
		b                  model.Budget
		amount             string
		startDate, endDate sql.NullString
		lastAlert          sql.NullInt64
		created, updated   int64
	)
	dest := append([]any{&b.ID, &b.UserID, &amount, &startDate, &endDate, &lastAlert, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if b.StartDate, err = s.parseDate(startDate); err != nil {
		return nil, fmt.Errorf("parse start_date: %w", err)
	}
	if b.EndDate, err = s.parseDate(endDate); err != nil {
		return nil, fmt.Errorf("parse end_date: %w", err)
	}
	if lastAlert.Valid {
		t := fromMillis(lastAlert.Int64)
		b.LastAlertSent = &t
	}
	b.CreatedAt = fromMillis(created)
	b.UpdatedAt = fromMillis(updated)
	return &b, nil
}

func (s *SQLite) formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.In(s.loc).Format(dateLayout)
}

func (s *SQLite) parseDate(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v.String, s.loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// buildWindowClause constructs a SQL WHERE clause from a usage window.
func buildWindowClause(window model.Window) (string, []any) {
	switch {
	case !window.Start.IsZero() && !window.End.IsZero():
		return "ts >= ? AND ts <= ?", []any{toMillis(window.Start), toMillis(window.End)}
	case !window.Start.IsZero():
		return "ts >= ?", []any{toMillis(window.Start)}
	case !window.End.IsZero():
		return "ts <= ?", []any{toMillis(window.End)}
	default:
		return "", nil
	}
}
