package changelog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/internal/errors"
)

type Entry struct {
	ID uuid.UUID

	Owner       string
	Repo        string
	Version     string
	Content     string
	Changes     json.RawMessage
	IsPublished bool
	Date        time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func fromEntry(entry *changelog.Entry) (*Entry, error) {
	changes := entry.Changes
	if changes == nil {
		changes = []changelog.Change{}
	}

	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return nil, errors.Wrap(changelog.EntityChangelog, "unable to marshal changes", err)
	}

	return &Entry{
		ID:          uuid.New(),
		Owner:       entry.Owner,
		Repo:        entry.Repo,
		Version:     entry.Version,
		Content:     entry.Content,
		Changes:     changesJSON,
		IsPublished: entry.IsPublished,
		Date:        entry.Date,
	}, nil
}

func (e *Entry) toEntry() (*changelog.Entry, error) {
	var changes []changelog.Change
	if len(e.Changes) > 0 {
		if err := json.Unmarshal(e.Changes, &changes); err != nil {
			return nil, errors.Wrap(changelog.EntityChangelog, "unable to unmarshal changes of "+e.Version, err)
		}
	}

	return &changelog.Entry{
		Owner:       e.Owner,
		Repo:        e.Repo,
		Version:     e.Version,
		Content:     e.Content,
		Changes:     changes,
		IsPublished: e.IsPublished,
		Date:        e.Date,
	}, nil
}
