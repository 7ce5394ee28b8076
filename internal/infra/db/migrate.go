package db

import (
	"database/sql"
	_ "embed"
)

//go:embed seeds/sources.sql
var seedSourcesSQL string

// MigrateUp creates the core schema: sources, articles, and the
// recommendation cache. The TF-IDF vector collection (article_vectors) is
// owned and created by internal/vectorindex.PgvectorStore.EnsureDimension,
// since its column dimension is only known once a vectorizer has been
// fitted.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sources (
    id              SERIAL PRIMARY KEY,
    name            TEXT NOT NULL,
    feed_url        TEXT NOT NULL UNIQUE,
    lean            VARCHAR(20) NOT NULL DEFAULT '',
    last_crawled_at TIMESTAMPTZ,
    active          BOOLEAN NOT NULL DEFAULT TRUE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id         SERIAL PRIMARY KEY,
    link       TEXT NOT NULL UNIQUE,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    summary    TEXT NOT NULL DEFAULT '',
    date       TIMESTAMPTZ,
    source     TEXT NOT NULL DEFAULT '',
    lean       VARCHAR(20) NOT NULL DEFAULT '',
    origin     TEXT NOT NULL DEFAULT '',
    author     TEXT NOT NULL DEFAULT '',
    section    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS recommendation_cache (
    base_link        TEXT NOT NULL,
    normalized_link  TEXT NOT NULL,
    hours_window     INT NOT NULL,
    top_k            INT NOT NULL,
    stance_threshold DOUBLE PRECISION NOT NULL,
    payload          JSONB NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (base_link, hours_window, top_k, stance_threshold)
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active) WHERE active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_recommendation_cache_normalized_link ON recommendation_cache(normalized_link)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// pgvector is required by internal/vectorindex; created here so the
	// extension exists before the first EnsureDimension call.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	if _, err := db.Exec(seedSourcesSQL); err != nil {
		return err
	}

	return nil
}

// MigrateDown drops the core schema. The article_vectors collection is
// left untouched; callers that want to drop it should call
// vectorindex.PgvectorStore directly, matching its own table ownership.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS recommendation_cache CASCADE`,
		`DROP TABLE IF EXISTS articles CASCADE`,
		`DROP TABLE IF EXISTS sources CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
