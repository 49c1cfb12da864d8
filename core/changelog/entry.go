package changelog

import (
	"strings"
	"time"

	"github.com/goto/changelogger/internal/errors"
)

const (
	EntityChangelog = "changelog"

	ChangeTypeCode       = "code"
	ChangeImpactModified = "Modified"
)

type Change struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// ChangesFrom projects file changes into the shape stored with a changelog entry.
func ChangesFrom(files []*FileChange) []Change {
	changes := make([]Change, 0, len(files))
	for _, f := range files {
		changes = append(changes, Change{
			Type:        ChangeTypeCode,
			Description: f.Path,
			Impact:      ChangeImpactModified,
		})
	}
	return changes
}

type Entry struct {
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	Version     string    `json:"version"`
	Content     string    `json:"content"`
	Changes     []Change  `json:"changes"`
	IsPublished bool      `json:"isPublished"`
	Date        time.Time `json:"date"`
}

func (e *Entry) Validate() error {
	if e == nil {
		return errors.InvalidArgument(EntityChangelog, "changelog entry is nil")
	}
	if strings.TrimSpace(e.Owner) == "" {
		return errors.InvalidArgument(EntityChangelog, "owner is empty")
	}
	if strings.TrimSpace(e.Repo) == "" {
		return errors.InvalidArgument(EntityChangelog, "repo is empty")
	}
	if strings.TrimSpace(e.Version) == "" {
		return errors.InvalidArgument(EntityChangelog, "version is empty")
	}
	return nil
}

// Search keeps the entries whose content or version contains term, ignoring case.
func Search(entries []*Entry, term string) []*Entry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}

	var found []*Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Content), term) || strings.Contains(strings.ToLower(e.Version), term) {
			found = append(found, e)
		}
	}
	return found
}
