package changelog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/internal/errors"
)

const (
	entryColumns = `id, owner, repo, version, content, changes, is_published, date, created_at, updated_at`

	upsertEntry = `INSERT INTO changelog_entry (` + entryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
ON CONFLICT (owner, repo, version) DO UPDATE SET
	content = EXCLUDED.content,
	changes = EXCLUDED.changes,
	is_published = EXCLUDED.is_published,
	date = EXCLUDED.date,
	updated_at = NOW()`

	getEntriesByRepository = `SELECT ` + entryColumns + ` FROM changelog_entry
WHERE owner = $1 AND repo = $2 AND ($3 = FALSE OR is_published = TRUE)
ORDER BY date DESC`
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		db: pool,
	}
}

// Upsert stores the entry, replacing the content of an existing entry with the same owner, repo and version.
func (r Repository) Upsert(ctx context.Context, entry *changelog.Entry) error {
	record, err := fromEntry(entry)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, upsertEntry,
		record.ID, record.Owner, record.Repo, record.Version,
		record.Content, record.Changes, record.IsPublished, record.Date,
	)
	return errors.WrapIfErr(changelog.EntityChangelog, "error upserting changelog entry", err)
}

// GetByRepository returns entries of a repository ordered by date, newest first.
func (r Repository) GetByRepository(ctx context.Context, owner, repo string, onlyPublished bool) ([]*changelog.Entry, error) {
	rows, err := r.db.Query(ctx, getEntriesByRepository, owner, repo, onlyPublished)
	if err != nil {
		return nil, errors.Wrap(changelog.EntityChangelog, "error reading changelog entries", err)
	}
	defer rows.Close()

	records, err := r.scanRows(rows)
	if err != nil {
		return nil, err
	}

	me := errors.NewMultiError("errors in GetByRepository")
	entries := make([]*changelog.Entry, 0, len(records))
	for _, record := range records {
		entry, err := record.toEntry()
		if err != nil {
			me.Append(err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, me.ToErr()
}

func (Repository) scanRows(rows pgx.Rows) ([]*Entry, error) {
	var records []*Entry
	for rows.Next() {
		var record Entry
		err := rows.Scan(
			&record.ID,
			&record.Owner,
			&record.Repo,
			&record.Version,
			&record.Content,
			&record.Changes,
			&record.IsPublished,
			&record.Date,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(changelog.EntityChangelog, "error scanning rows", err)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(changelog.EntityChangelog, "error iterating rows", err)
	}
	return records, nil
}
