package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"scalptrainer/internal/domain"
	"scalptrainer/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Journal implements ports.TradeJournal using SQLite. It records
// closed practice trades so a trainee can review past sessions; the
// in-memory score aggregates are independent of it and still reset on
// restart.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal opens (and if needed creates) the journal database.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for the SQLite journal", ports.ErrConfigurationError)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/scalp_trainer.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// WAL mode keeps writes from blocking the snapshot readers.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, logger: cfg.Logger}
	if err := j.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize journal schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Trade journal opened", map[string]interface{}{"path": dbPath})
	return j, nil
}

func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		side TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		entry_time TIMESTAMP NOT NULL,
		exit_time TIMESTAMP NOT NULL,
		outcome TEXT NOT NULL,
		from_breakout INTEGER NOT NULL DEFAULT 0,
		reaction_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades (exit_time);
	`
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		j.logger.Info(context.Background(), "Closing trade journal")
		return j.db.Close()
	}
	return nil
}

// Append saves a closed trade and returns its assigned ID.
func (j *Journal) Append(ctx context.Context, rec *domain.TradeRecord) (int64, error) {
	const query = `
	INSERT INTO trades (side, entry_price, exit_price, entry_time, exit_time, outcome, from_breakout, reaction_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := j.db.ExecContext(ctx, query,
		rec.Side, rec.EntryPrice, rec.ExitPrice, rec.EntryTime, rec.ExitTime,
		rec.Outcome, rec.FromBreakout, rec.ReactionTime.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade: %w", err)
	}
	rec.ID = id
	j.logger.Debug(ctx, "Trade journaled", map[string]interface{}{"tradeID": id, "outcome": rec.Outcome})
	return id, nil
}

// Recent retrieves the most recently closed trades, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	const query = `
	SELECT id, side, entry_price, exit_price, entry_time, exit_time, outcome, from_breakout, reaction_ms
	FROM trades ORDER BY exit_time DESC, id DESC LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		rec := &domain.TradeRecord{}
		var side, outcome string
		var reactionMs int64
		if err := rows.Scan(&rec.ID, &side, &rec.EntryPrice, &rec.ExitPrice,
			&rec.EntryTime, &rec.ExitTime, &outcome, &rec.FromBreakout, &reactionMs); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		rec.Side = domain.Side(side)
		rec.Outcome = domain.Outcome(outcome)
		rec.ReactionTime = time.Duration(reactionMs) * time.Millisecond
		trades = append(trades, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}
