package service

import (
	"context"
	"time"

	"github.com/goto/salt/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/internal/errors"
)

type ChangelogRepository interface {
	Upsert(ctx context.Context, entry *changelog.Entry) error
	GetByRepository(ctx context.Context, owner, repo string, onlyPublished bool) ([]*changelog.Entry, error)
}

var changelogStoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "changelogger_changelog_store_errors",
	Help: "errors occurred while storing or reading changelog entries",
}, []string{"operation", "owner", "repo"})

type ChangelogService struct {
	repo   ChangelogRepository
	logger log.Logger

	now func() time.Time
}

func NewChangelogService(logger log.Logger, repo ChangelogRepository) *ChangelogService {
	return &ChangelogService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Publish stores the entry, replacing any entry with the same owner, repo and version.
// Changes are derived from files when the entry carries none.
func (cs *ChangelogService) Publish(ctx context.Context, entry *changelog.Entry, files []*changelog.FileChange) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	if len(entry.Changes) == 0 {
		entry.Changes = changelog.ChangesFrom(files)
	}
	if entry.Date.IsZero() {
		entry.Date = cs.now().UTC()
	}

	if err := cs.repo.Upsert(ctx, entry); err != nil {
		cs.logger.Error("error storing changelog", "owner", entry.Owner, "repo", entry.Repo, "version", entry.Version, "error", err.Error())
		changelogStoreFailures.WithLabelValues("upsert", entry.Owner, entry.Repo).Inc()
		return errors.AddErrContext(err, changelog.EntityChangelog, "unable to publish changelog "+entry.Version)
	}
	return nil
}

// GetPublished returns the published entries of a repository, newest first, filtered by term when given.
func (cs *ChangelogService) GetPublished(ctx context.Context, owner, repo, term string) ([]*changelog.Entry, error) {
	if owner == "" || repo == "" {
		return nil, errors.InvalidArgument(changelog.EntityChangelog, "owner and repo are required")
	}

	entries, err := cs.repo.GetByRepository(ctx, owner, repo, true)
	if err != nil {
		cs.logger.Error("error getting changelogs", "owner", owner, "repo", repo, "error", err.Error())
		changelogStoreFailures.WithLabelValues("read", owner, repo).Inc()
		return nil, err
	}

	return changelog.Search(entries, term), nil
}
