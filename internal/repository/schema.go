package repository

// SchemaStatements are the idempotent DDL statements for the trade history
// and tick archive tables. Applied once at startup via the ClickHouse client.
func SchemaStatements(database string) []string {
	return []string{
		"CREATE DATABASE IF NOT EXISTS " + database,
		`CREATE TABLE IF NOT EXISTS dp_trades (
			ts          DateTime,
			decision_id String,
			bot_id      String,
			symbol      String,
			family      LowCardinality(String),
			direction   LowCardinality(String),
			target      Int8,
			confidence  Float64,
			score       Float64,
			stake       Float64,
			result      LowCardinality(String),
			profit      Float64
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (bot_id, ts)`,
		`CREATE TABLE IF NOT EXISTS dp_ticks (
			ts     DateTime,
			symbol LowCardinality(String),
			price  Float64,
			digit  UInt8
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (symbol, ts)
		TTL ts + INTERVAL 30 DAY`,
	}
}
