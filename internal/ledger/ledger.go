// Package ledger records every pass execution with its input and output row
// counts so dropped rows can be audited after the fact.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	pass        TEXT NOT NULL,
	input_file  TEXT NOT NULL DEFAULT '',
	input_rows  INTEGER NOT NULL DEFAULT 0,
	output_rows INTEGER NOT NULL DEFAULT 0,
	issues      INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at);
`

const runColumns = `id, pass, input_file, input_rows, output_rows, issues, status, error, started_at, finished_at`

// Config selects the database.
type Config struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// Ledger is a run store backed by sqlite or postgres.
type Ledger struct {
	db       *sqlx.DB
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, apperrors.NewConfigError("invalid ledger configuration", err)
	}

	if cfg.Driver == DriverSQLite {
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, apperrors.NewStorageError("failed to create ledger directory", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open ledger", err).
			WithContext("driver", cfg.Driver)
	}
	if cfg.Driver == DriverSQLite {
		// sqlite allows one writer at a time.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, apperrors.NewStorageError("failed to create ledger schema", err)
		}
	}

	l := &Ledger{
		db:       db,
		validate: v,
		logger:   logger.With(slog.String("component", "ledger")),
		now:      func() time.Time { return time.Now().UTC() },
	}
	l.logger.Info("ledger opened", slog.String("driver", cfg.Driver))
	return l, nil
}

// ensureDir creates the parent directory of a sqlite file DSN.
func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Ping checks the database connection.
func (l *Ledger) Ping(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return apperrors.NewStorageError("ledger unreachable", err)
	}
	return nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Begin inserts a running record for pass.
func (l *Ledger) Begin(ctx context.Context, pass, inputFile string, inputRows int) (domain.RunRecord, error) {
	rec := domain.RunRecord{
		ID:        uuid.New().String(),
		Pass:      pass,
		InputFile: inputFile,
		InputRows: inputRows,
		Status:    domain.RunStatusRunning,
		StartedAt: l.now(),
	}
	if err := l.validate.Struct(rec); err != nil {
		return domain.RunRecord{}, apperrors.NewAppValidationError(err.Error())
	}

	_, err := l.db.ExecContext(ctx, l.db.Rebind(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, rec.Pass, rec.InputFile, rec.InputRows, rec.OutputRows, rec.Issues,
		rec.Status, rec.Error, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return domain.RunRecord{}, apperrors.NewStorageError("failed to record run", err)
	}

	l.logger.DebugContext(ctx, "run started",
		slog.String("run_id", rec.ID),
		slog.String("pass", pass),
		slog.Int("input_rows", inputRows))
	return rec, nil
}

// Finish marks rec completed, or failed when runErr is non-nil, and stores
// rec.InputRows with the output counts. The updated record is returned.
func (l *Ledger) Finish(ctx context.Context, rec domain.RunRecord, outputRows, issues int, runErr error) (domain.RunRecord, error) {
	finished := l.now()
	rec.OutputRows = outputRows
	rec.Issues = issues
	rec.FinishedAt = &finished
	rec.Status = domain.RunStatusCompleted
	if runErr != nil {
		rec.Status = domain.RunStatusFailed
		rec.Error = runErr.Error()
	}
	if err := l.validate.Struct(rec); err != nil {
		return rec, apperrors.NewAppValidationError(err.Error())
	}

	res, err := l.db.ExecContext(ctx, l.db.Rebind(`
		UPDATE runs
		SET input_rows = ?, output_rows = ?, issues = ?, status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`), rec.InputRows, rec.OutputRows, rec.Issues, rec.Status, rec.Error, rec.FinishedAt, rec.ID)
	if err != nil {
		return rec, apperrors.NewStorageError("failed to finish run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return rec, apperrors.NewNotFoundError(fmt.Sprintf("run %s", rec.ID))
	}

	l.logger.InfoContext(ctx, "run finished",
		slog.String("run_id", rec.ID),
		slog.String("pass", rec.Pass),
		slog.String("status", rec.Status),
		slog.Int("input_rows", rec.InputRows),
		slog.Int("output_rows", rec.OutputRows),
		slog.Int("dropped", rec.Dropped()))
	return rec, nil
}

// Get returns one run.
func (l *Ledger) Get(ctx context.Context, id string) (domain.RunRecord, error) {
	var rec domain.RunRecord
	err := l.db.GetContext(ctx, &rec, l.db.Rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, apperrors.NewNotFoundError(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return rec, apperrors.NewStorageError("failed to load run", err)
	}
	normalizeTimes(&rec)
	return rec, nil
}

// List returns runs newest first, optionally filtered by pass. A
// non-positive limit returns every run.
func (l *Ledger) List(ctx context.Context, pass string, limit int) ([]domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []interface{}
	if pass != "" {
		query += ` WHERE pass = ?`
		args = append(args, pass)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	runs := []domain.RunRecord{}
	if err := l.db.SelectContext(ctx, &runs, l.db.Rebind(query), args...); err != nil {
		return nil, apperrors.NewStorageError("failed to list runs", err)
	}
	for i := range runs {
		normalizeTimes(&runs[i])
	}
	return runs, nil
}

func normalizeTimes(rec *domain.RunRecord) {
	rec.StartedAt = rec.StartedAt.UTC()
	if rec.FinishedAt != nil {
		t := rec.FinishedAt.UTC()
		rec.FinishedAt = &t
	}
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
