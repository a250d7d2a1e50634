package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dialect names the SQL flavour a SQLStore talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore persists credentials and applications in a relational
// database. Applications are kept in insertion order by seq, so positional
// indexes mean the same thing they do for the flat-file store.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Init applies the schema. Safe to run repeatedly.
func (s *SQLStore) Init(ctx context.Context) error {
	seq := "INTEGER PRIMARY KEY AUTOINCREMENT"
	ts := "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"
	if s.dialect == DialectPostgres {
		seq = "BIGSERIAL PRIMARY KEY"
		ts = "TIMESTAMPTZ NOT NULL DEFAULT NOW()"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
			seq        ` + seq + `,
			role       TEXT NOT NULL,
			username   TEXT NOT NULL,
			password   TEXT NOT NULL,
			created_at ` + ts + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credentials_lookup ON credentials(role, username)`,
		`CREATE TABLE IF NOT EXISTS leave_applications (
			seq        ` + seq + `,
			id         TEXT NOT NULL UNIQUE,
			username   TEXT NOT NULL,
			reason     TEXT NOT NULL,
			from_date  TEXT NOT NULL,
			till_date  TEXT NOT NULL,
			year       TEXT NOT NULL,
			filename   TEXT NOT NULL DEFAULT '',
			decision   TEXT NOT NULL DEFAULT '',
			created_at ` + ts + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leave_applications_username ON leave_applications(username)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Write inserts a credential row. Duplicate usernames are allowed.
func (s *SQLStore) Write(ctx context.Context, username, password string, role Role) error {
	if role != RoleStudent && role != RoleHOD {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO credentials (role, username, password, created_at)
		VALUES (?, ?, ?, ?)
	`), string(role), username, password, time.Now().UTC())
	return err
}

// Verify reports whether the role holds a matching username/password pair.
func (s *SQLStore) Verify(ctx context.Context, username, password string, role Role) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT 1 FROM credentials
		WHERE role = ? AND username = ? AND password = ?
		ORDER BY seq
		LIMIT 1
	`), string(role), username, password).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Save inserts a pending application and assigns it a stable id.
func (s *SQLStore) Save(ctx context.Context, app Application) (Application, error) {
	app.ID = uuid.NewString()
	app.Decision = DecisionNone
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO leave_applications (id, username, reason, from_date, till_date, year, filename, decision, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), app.ID, app.Username, app.Reason, app.FromDate, app.TillDate, app.Year, app.Filename, string(app.Decision), time.Now().UTC())
	if err != nil {
		return Application{}, err
	}
	return app, nil
}

// List returns every application in creation order.
func (s *SQLStore) List(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, reason, from_date, till_date, year, filename, decision
		FROM leave_applications
		ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		var decision string
		if err := rows.Scan(&app.ID, &app.Username, &app.Reason, &app.FromDate, &app.TillDate, &app.Year, &app.Filename, &decision); err != nil {
			return nil, err
		}
		app.Decision = Decision(decision)
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// SetDecision updates the application at the given List position in a
// single statement.
func (s *SQLStore) SetDecision(ctx context.Context, index int, d Decision) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE leave_applications
		SET decision = ?
		WHERE seq = (SELECT seq FROM leave_applications ORDER BY seq LIMIT 1 OFFSET ?)
	`), string(d), index)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return nil
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
