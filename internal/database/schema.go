package database

// SQL schemas for all ClickHouse tables

const (
	// FeedbackEventsTableSQL creates the feedback_events table, one row per
	// processed frame
	FeedbackEventsTableSQL = `
		CREATE TABLE IF NOT EXISTS feedback_events (
			timestamp DateTime64(3),
			session_id String,
			seq UInt64,
			label LowCardinality(String),
			side LowCardinality(String),
			ratio Nullable(Float64),
			smoothed_guard Float64,
			smoothed_span Float64,
			color LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (session_id, timestamp, seq)
		PARTITION BY toYYYYMM(timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		FeedbackEventsTableSQL,
	}
}
