package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Verify interface implementation.
var _ driven.DigestStore = (*digestStore)(nil)

// digestStore implements driven.DigestStore using SQLite.
type digestStore struct {
	store *Store
}

var digestColumns = []string{"id", "week_ending", "content", "items_analyzed", "items_included", "created_at"}

// Put stores a digest and its derived rows in one transaction.
func (s *digestStore) Put(ctx context.Context, record domain.DigestRecord, policy domain.ConflictPolicy) error {
	if record.WeekEnding.IsZero() {
		return fmt.Errorf("%w: record has no week ending", domain.ErrInvalidInput)
	}
	if !policy.IsValid() {
		return fmt.Errorf("%w: conflict policy %q", domain.ErrInvalidInput, policy)
	}
	digest, err := record.Decode()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	week := record.WeekEnding.String()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM digests WHERE week_ending = ?", week).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking week %s: %w", week, err)
	}
	if exists > 0 {
		if policy == domain.ConflictReject {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateWeek, week)
		}
		// Derived rows cascade.
		if _, err := tx.ExecContext(ctx, "DELETE FROM digests WHERE week_ending = ?", week); err != nil {
			return fmt.Errorf("replacing digest %s: %w", week, err)
		}
	}

	query, args, err := sq.Insert("digests").
		Columns(digestColumns...).
		Values(record.ID, week, record.Content, record.ItemsAnalyzed, record.ItemsIncluded,
			record.CreatedAt.UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateWeek, week)
		}
		return fmt.Errorf("inserting digest %s: %w", week, err)
	}

	if err := insertDerived(ctx, tx, week, digest); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing digest %s: %w", week, err)
	}
	return nil
}

// insertDerived writes the per-story and per-theme rows for a digest.
func insertDerived(ctx context.Context, tx *sql.Tx, week string, digest *domain.Digest) error {
	if len(digest.TopStories) > 0 {
		items := sq.Insert("digest_items").
			Columns("week_ending", "position", "title", "source", "url", "summary", "theme", "importance", "geography")
		for i, story := range digest.TopStories {
			items = items.Values(week, i, story.Title, story.Source, story.URL, story.Summary,
				string(story.Theme), string(story.Importance), string(story.Geography))
		}
		query, args, err := items.ToSql()
		if err != nil {
			return fmt.Errorf("building item insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting items for %s: %w", week, err)
		}
	}

	themes := make([]string, 0, len(digest.ByTheme))
	for theme := range digest.ByTheme {
		themes = append(themes, string(theme))
	}
	if len(themes) == 0 {
		return nil
	}
	sort.Strings(themes)

	counts := sq.Insert("theme_counts").Columns("week_ending", "theme", "count")
	for _, theme := range themes {
		counts = counts.Values(week, theme, digest.ByTheme[domain.Theme(theme)].Count)
	}
	query, args, err := counts.ToSql()
	if err != nil {
		return fmt.Errorf("building theme insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting theme counts for %s: %w", week, err)
	}
	return nil
}

// Get retrieves the record for a week.
func (s *digestStore) Get(ctx context.Context, weekEnding domain.Day) (*domain.DigestRecord, error) {
	query, args, err := sq.Select(digestColumns...).
		From("digests").
		Where(sq.Eq{"week_ending": weekEnding.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	record, err := scanDigest(s.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting digest %s: %w", weekEnding, err)
	}
	return record, nil
}

// List returns up to limit records, newest week first.
func (s *digestStore) List(ctx context.Context, limit int) ([]domain.DigestRecord, error) {
	builder := sq.Select(digestColumns...).
		From("digests").
		OrderBy("week_ending DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing digests: %w", err)
	}
	defer rows.Close()

	var records []domain.DigestRecord
	for rows.Next() {
		record, err := scanDigest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning digest: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// ThemeFrequency sums story counts per theme over weeks ending on or after since.
func (s *digestStore) ThemeFrequency(ctx context.Context, since domain.Day) (map[domain.Theme]int, error) {
	query, args, err := sq.Select("theme", "SUM(count)").
		From("theme_frequency").
		Where(sq.GtOrEq{"week_ending": since.String()}).
		GroupBy("theme").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying theme frequency: %w", err)
	}
	defer rows.Close()

	freq := make(map[domain.Theme]int)
	for rows.Next() {
		var theme string
		var count int
		if err := rows.Scan(&theme, &count); err != nil {
			return nil, fmt.Errorf("scanning theme frequency: %w", err)
		}
		freq[domain.Theme(theme)] = count
	}
	return freq, rows.Err()
}

// ThemeTrend returns weekly counts since the given day, oldest first.
func (s *digestStore) ThemeTrend(ctx context.Context, since domain.Day, theme domain.Theme) ([]domain.ThemeTrendPoint, error) {
	where := sq.And{sq.GtOrEq{"week_ending": since.String()}}
	if theme != "" {
		where = append(where, sq.Eq{"theme": string(theme)})
	}
	query, args, err := sq.Select("week_ending", "theme", "count").
		From("theme_frequency").
		Where(where).
		OrderBy("week_ending ASC", "theme ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying theme trend: %w", err)
	}
	defer rows.Close()

	var points []domain.ThemeTrendPoint
	for rows.Next() {
		var week, name string
		var count int
		if err := rows.Scan(&week, &name, &count); err != nil {
			return nil, fmt.Errorf("scanning theme trend: %w", err)
		}
		day, err := domain.ParseDay(week)
		if err != nil {
			return nil, fmt.Errorf("parsing week %q: %w", week, err)
		}
		points = append(points, domain.ThemeTrendPoint{WeekEnding: day, Theme: domain.Theme(name), Count: count})
	}
	return points, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDigest(row rowScanner) (*domain.DigestRecord, error) {
	var (
		record    domain.DigestRecord
		week      string
		createdAt string
	)
	if err := row.Scan(&record.ID, &week, &record.Content, &record.ItemsAnalyzed,
		&record.ItemsIncluded, &createdAt); err != nil {
		return nil, err
	}

	day, err := domain.ParseDay(week)
	if err != nil {
		return nil, err
	}
	record.WeekEnding = day
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		record.CreatedAt = t
	}
	return &record, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY")
}
