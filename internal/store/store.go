// Package store persists each poll cycle's story collection to SQLite.
// A cycle is written atomically and entirely supersedes the previous one
// for display purposes; older cycles are retained for trend history.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/glosignal/glosignal/internal/logging"
	"github.com/glosignal/glosignal/internal/story"
)

// Store handles persistence of story cycles.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logging.Debug("database initialized", "path", dbPath)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fetched_at DATETIME NOT NULL,
		story_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stories (
		cycle_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		domain TEXT,
		snippet TEXT,
		summary TEXT,
		deep_extract TEXT,
		alt_source TEXT,
		related_sources TEXT,
		related_links TEXT,
		source_count INTEGER NOT NULL,
		topics TEXT NOT NULL,
		published_at DATETIME,
		display_age TEXT,
		urgency TEXT,
		trending INTEGER NOT NULL,
		trend_score INTEGER NOT NULL,
		hn_url TEXT,
		discussion_url TEXT,
		PRIMARY KEY (cycle_id, position),
		FOREIGN KEY (cycle_id) REFERENCES cycles(id)
	);

	CREATE INDEX IF NOT EXISTS idx_stories_link ON stories(link);
	CREATE INDEX IF NOT EXISTS idx_cycles_fetched ON cycles(fetched_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCycle writes one poll cycle's stories in a single transaction and
// returns the cycle ID.
func (s *Store) SaveCycle(stories []story.Story, fetchedAt time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO cycles (fetched_at, story_count) VALUES (?, ?)`,
		fetchedAt, len(stories))
	if err != nil {
		return 0, fmt.Errorf("insert cycle: %w", err)
	}
	cycleID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("cycle id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO stories (
		cycle_id, position, title, link, domain, snippet, summary,
		deep_extract, alt_source, related_sources, related_links,
		source_count, topics, published_at, display_age, urgency,
		trending, trend_score, hn_url, discussion_url
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, st := range stories {
		_, err := stmt.Exec(
			cycleID, i, st.Title, st.Link, st.Domain, st.Snippet, st.Summary,
			marshalJSON(st.DeepExtract), st.AltSource,
			marshalJSON(st.RelatedSources), marshalJSON(st.RelatedLinks),
			st.SourceCount, marshalJSON(st.Topics), st.PublishedAt,
			st.DisplayAge, string(st.Urgency),
			boolInt(st.Trending), st.TrendScore, st.HNUrl, st.DiscussionURL,
		)
		if err != nil {
			return 0, fmt.Errorf("insert story %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return cycleID, nil
}

// UpdateEnrichment overwrites the enrichment-owned fields of a cycle's
// stories, matched by link.
func (s *Store) UpdateEnrichment(cycleID int64, stories []story.Story) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE stories
		SET summary = ?, deep_extract = ?, alt_source = ?
		WHERE cycle_id = ? AND link = ?`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, st := range stories {
		if _, err := stmt.Exec(st.Summary, marshalJSON(st.DeepExtract), st.AltSource, cycleID, st.Link); err != nil {
			return fmt.Errorf("update story %q: %w", st.Link, err)
		}
	}
	return tx.Commit()
}

// LatestCycle loads the most recent cycle's stories in feed order. A fresh
// database yields an empty slice and cycle ID zero.
func (s *Store) LatestCycle() (int64, []story.Story, error) {
	var cycleID int64
	err := s.db.QueryRow(`SELECT id FROM cycles ORDER BY fetched_at DESC, id DESC LIMIT 1`).Scan(&cycleID)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("latest cycle: %w", err)
	}

	rows, err := s.db.Query(`SELECT
		title, link, domain, snippet, summary, deep_extract, alt_source,
		related_sources, related_links, source_count, topics, published_at,
		display_age, urgency, trending, trend_score, hn_url, discussion_url
		FROM stories WHERE cycle_id = ? ORDER BY position`, cycleID)
	if err != nil {
		return 0, nil, fmt.Errorf("load stories: %w", err)
	}
	defer rows.Close()

	var stories []story.Story
	for rows.Next() {
		var (
			st                               story.Story
			deep, related, links, topicsJSON string
			urgency                          string
			trending                         int
			published                        sql.NullTime
		)
		err := rows.Scan(
			&st.Title, &st.Link, &st.Domain, &st.Snippet, &st.Summary,
			&deep, &st.AltSource, &related, &links, &st.SourceCount,
			&topicsJSON, &published, &st.DisplayAge, &urgency,
			&trending, &st.TrendScore, &st.HNUrl, &st.DiscussionURL,
		)
		if err != nil {
			return 0, nil, fmt.Errorf("scan story: %w", err)
		}
		unmarshalJSON(deep, &st.DeepExtract)
		unmarshalJSON(related, &st.RelatedSources)
		unmarshalJSON(links, &st.RelatedLinks)
		unmarshalJSON(topicsJSON, &st.Topics)
		st.Urgency = story.Urgency(urgency)
		st.Trending = trending != 0
		if published.Valid {
			st.PublishedAt = published.Time
		}
		stories = append(stories, st)
	}
	return cycleID, stories, rows.Err()
}

// PruneCycles deletes all but the newest keep cycles.
func (s *Store) PruneCycles(keep int) error {
	_, err := s.db.Exec(`DELETE FROM stories WHERE cycle_id NOT IN (
		SELECT id FROM cycles ORDER BY fetched_at DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune stories: %w", err)
	}
	_, err = s.db.Exec(`DELETE FROM cycles WHERE id NOT IN (
		SELECT id FROM cycles ORDER BY fetched_at DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune cycles: %w", err)
	}
	return nil
}

func marshalJSON(v []string) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalJSON(s string, out *[]string) {
	if s == "" {
		return
	}
	_ = json.Unmarshal([]byte(s), out)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
