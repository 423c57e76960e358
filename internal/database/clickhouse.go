package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"pose-feedback/internal/models"
)

type ClickHouseDB struct {
	conn driver.Conn
}

// ClickHouseConfig holds connection settings
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// SessionCounts are per-session label totals read back from the event log
type SessionCounts struct {
	Total     uint64
	Correct   uint64
	Incorrect uint64
}

// NewClickHouseDB connects to ClickHouse and initializes the schema
func NewClickHouseDB(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	slog.Info("database: connected to ClickHouse", "addr", cfg.Addr, "database", cfg.Database)

	db := &ClickHouseDB{conn: conn}
	if err := db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	slog.Info("database: schema initialized")
	return nil
}

// SaveFeedbackEvent appends one feedback event to the event log
func (db *ClickHouseDB) SaveFeedbackEvent(ctx context.Context, ev *models.FeedbackEvent) error {
	query := `
		INSERT INTO feedback_events (timestamp, session_id, seq, label, side, ratio, smoothed_guard, smoothed_span, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	err := db.conn.Exec(ctx, query,
		ts,
		ev.SessionID,
		ev.Seq,
		ev.Label,
		ev.Side.String(),
		ev.Ratio,
		ev.SmoothedGuard,
		ev.SmoothedSpan,
		ev.Draw.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback event: %w", err)
	}

	return nil
}

// GetSessionCounts returns the label totals recorded for a session
func (db *ClickHouseDB) GetSessionCounts(ctx context.Context, sessionID string) (*SessionCounts, error) {
	query := `
		SELECT
			count() AS total,
			countIf(label = ?) AS correct,
			countIf(label = ?) AS incorrect
		FROM feedback_events
		WHERE session_id = ?
	`

	var counts SessionCounts
	row := db.conn.QueryRow(ctx, query, models.LabelCorrect, models.LabelIncorrect, sessionID)
	if err := row.Scan(&counts.Total, &counts.Correct, &counts.Incorrect); err != nil {
		return nil, fmt.Errorf("failed to count feedback events: %w", err)
	}

	return &counts, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		slog.Info("database: ClickHouse connection closed")
	}
	return nil
}
