package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goto/salt/log"
	"github.com/kushsharma/parallel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/ext/git"
	"github.com/goto/changelogger/internal/errors"
	"github.com/goto/changelogger/internal/utils"
)

const (
	EntityComparison = "comparison"

	ConcurrentTicketPerSec = 50
	ConcurrentLimit        = 100

	comparisonStateSuccess = "success"
	comparisonStateFailed  = "failed"
)

var (
	comparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "changelogger_comparisons_total",
		Help: "comparisons handled, partitioned by outcome",
	}, []string{"state"})

	fileCompareFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "changelogger_file_compare_failures_total",
		Help: "files dropped from a comparison because they could not be compared",
	})

	comparedFiles = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "changelogger_compared_files",
		Help:    "number of paths compared in one comparison",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

type Generator interface {
	Generate(ctx context.Context, digest string) (string, error)
	GenerateFromDiff(ctx context.Context, path, unifiedDiff string) (string, error)
}

type ComparisonConfig struct {
	Concurrency        int
	SummaryBudget      int
	TreeRetryMax       int
	TreeRetryBackoffMs int64
}

type CompareRequest struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	BaseRef string `json:"baseRef"`
	HeadRef string `json:"headRef"`
}

func (r CompareRequest) Validate() error {
	me := errors.NewMultiError("invalid compare request")
	for name, value := range map[string]string{"owner": r.Owner, "repo": r.Repo, "baseRef": r.BaseRef, "headRef": r.HeadRef} {
		if strings.TrimSpace(value) == "" {
			me.Append(fmt.Errorf("%s is empty", name))
		}
	}
	if err := me.ToErr(); err != nil {
		return errors.InvalidArgument(EntityComparison, err.Error())
	}
	return nil
}

type ComparisonService struct {
	host       git.Host
	comparator *FileComparator
	generator  Generator
	logger     log.Logger

	conf ComparisonConfig
}

func NewComparisonService(logger log.Logger, host git.Host, generator Generator, conf ComparisonConfig) *ComparisonService {
	if conf.Concurrency <= 0 {
		conf.Concurrency = ConcurrentLimit
	}
	return &ComparisonService{
		host:       host,
		comparator: NewFileComparator(host),
		generator:  generator,
		logger:     logger,
		conf:       conf,
	}
}

// Compare diffs every file between the two refs and generates a changelog for the changed set.
// Listing or generation failures fail the whole comparison, a file that cannot be compared is dropped.
func (s *ComparisonService) Compare(ctx context.Context, req CompareRequest) (*changelog.ComparisonResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	spanCtx, span := otel.Tracer("changelogger").Start(ctx, "Compare")
	defer span.End()
	span.SetAttributes(
		attribute.String("project", git.ProjectID(req.Owner, req.Repo)),
		attribute.String("base", req.BaseRef),
		attribute.String("head", req.HeadRef),
	)

	result, err := s.compare(spanCtx, req)
	if err != nil {
		span.RecordError(err)
		comparisonsTotal.WithLabelValues(comparisonStateFailed).Inc()
		return nil, err
	}
	comparisonsTotal.WithLabelValues(comparisonStateSuccess).Inc()
	return result, nil
}

func (s *ComparisonService) compare(ctx context.Context, req CompareRequest) (*changelog.ComparisonResult, error) {
	start := time.Now()
	projectID := git.ProjectID(req.Owner, req.Repo)

	snapshots, err := s.snapshots(ctx, projectID, req.BaseRef, req.HeadRef)
	if err != nil {
		return nil, err
	}
	base, head := snapshots[0], snapshots[1]
	paths := unionOfPaths(base.paths, head.paths)
	comparedFiles.Observe(float64(len(paths)))

	files := s.compareFiles(ctx, projectID, paths, base.commit, head.commit)
	s.logger.Info("compared refs", "project", projectID, "base", req.BaseRef, "base_commit", base.commit,
		"head", req.HeadRef, "head_commit", head.commit, "paths", len(paths), "changed", len(files),
		"took", time.Since(start).String())

	digest := changelog.Digest(files, s.conf.SummaryBudget)
	text, err := s.generator.Generate(ctx, digest)
	if err != nil {
		return nil, errors.Wrap(EntityComparison, "unable to generate changelog for "+projectID, err)
	}

	return &changelog.ComparisonResult{Files: files, Changelog: text}, nil
}

// CompareFile diffs a single path between the two refs and generates a changelog from its
// unified diff. The result holds no file when the path did not change.
func (s *ComparisonService) CompareFile(ctx context.Context, req CompareRequest, path string) (*changelog.ComparisonResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.InvalidArgument(EntityComparison, "path is empty")
	}

	spanCtx, span := otel.Tracer("changelogger").Start(ctx, "CompareFile")
	defer span.End()
	projectID := git.ProjectID(req.Owner, req.Repo)
	span.SetAttributes(attribute.String("project", projectID), attribute.String("path", path))

	result, err := s.compareFile(spanCtx, projectID, req, path)
	if err != nil {
		span.RecordError(err)
		comparisonsTotal.WithLabelValues(comparisonStateFailed).Inc()
		return nil, err
	}
	comparisonsTotal.WithLabelValues(comparisonStateSuccess).Inc()
	return result, nil
}

func (s *ComparisonService) compareFile(ctx context.Context, projectID string, req CompareRequest, path string) (*changelog.ComparisonResult, error) {
	baseCommit, err := s.resolve(ctx, projectID, req.BaseRef)
	if err != nil {
		return nil, err
	}
	headCommit, err := s.resolve(ctx, projectID, req.HeadRef)
	if err != nil {
		return nil, err
	}

	change, err := s.comparator.Compare(ctx, projectID, path, baseCommit, headCommit)
	if err != nil {
		return nil, errors.Wrap(EntityComparison, "unable to compare "+path, err)
	}
	if change == nil {
		s.logger.Info("file unchanged between refs", "project", projectID, "path", path,
			"base_commit", baseCommit, "head_commit", headCommit)
		text, err := s.generator.Generate(ctx, "")
		if err != nil {
			return nil, errors.Wrap(EntityComparison, "unable to generate changelog for "+path, err)
		}
		return &changelog.ComparisonResult{Files: []*changelog.FileChange{}, Changelog: text}, nil
	}

	text, err := s.generator.GenerateFromDiff(ctx, path, change.Unified())
	if err != nil {
		return nil, errors.Wrap(EntityComparison, "unable to generate changelog for "+path, err)
	}
	return &changelog.ComparisonResult{Files: []*changelog.FileChange{change}, Changelog: text}, nil
}

// snapshot is a ref pinned to one commit together with the files it holds.
type snapshot struct {
	commit string
	paths  []string
}

// snapshots pins both refs to their commits and lists their files concurrently. All later reads
// use the commit, so a branch moving mid comparison cannot mix two versions of it.
func (s *ComparisonService) snapshots(ctx context.Context, projectID string, refs ...string) ([]snapshot, error) {
	result := make([]snapshot, len(refs))

	runner := parallel.NewRunner(parallel.WithTicket(ConcurrentTicketPerSec), parallel.WithLimit(len(refs)))
	for i, ref := range refs {
		runner.Add(func(index int, currentRef string) func() (interface{}, error) {
			return func() (interface{}, error) {
				snap, err := s.snapshot(ctx, projectID, currentRef)
				if err != nil {
					return nil, err
				}
				result[index] = snap
				return nil, nil
			}
		}(i, ref))
	}

	me := errors.NewMultiError("errors in listing trees")
	for _, res := range runner.Run() {
		me.Append(res.Err)
	}
	if err := me.ToErr(); err != nil {
		return nil, errors.Wrap(EntityComparison, "unable to enumerate files of "+projectID, err)
	}
	return result, nil
}

func (s *ComparisonService) resolve(ctx context.Context, projectID, ref string) (string, error) {
	var commit string
	err := s.retry(ctx, func() error {
		var err error
		commit, err = s.host.ResolveRef(ctx, projectID, ref)
		return err
	})
	if err != nil {
		return "", errors.Wrap(EntityComparison, "unable to resolve "+ref, err)
	}
	return commit, nil
}

func (s *ComparisonService) snapshot(ctx context.Context, projectID, ref string) (snapshot, error) {
	commit, err := s.resolve(ctx, projectID, ref)
	if err != nil {
		return snapshot{}, err
	}

	var trees []*git.Tree
	err = s.retry(ctx, func() error {
		var err error
		trees, err = s.host.ListTree(ctx, projectID, commit, "")
		return err
	})
	if err != nil {
		return snapshot{}, errors.Wrap(EntityComparison, "unable to list files at "+ref, err)
	}
	return snapshot{commit: commit, paths: git.Trees(trees).FilePaths()}, nil
}

// retry repeats f on transient failures. A missing ref or a malformed project will fail the same way again.
func (s *ComparisonService) retry(ctx context.Context, f func() error) error {
	return utils.RetryIf(ctx, s.logger, s.conf.TreeRetryMax, s.conf.TreeRetryBackoffMs, func(err error) bool {
		return !errors.IsErrorType(err, errors.ErrNotFound) && !errors.IsErrorType(err, errors.ErrInvalidArgument)
	}, f)
}

// unionOfPaths merges path lists keeping first-seen order, base paths first.
func unionOfPaths(lists ...[]string) []string {
	seen := make(map[string]bool)
	var union []string
	for _, paths := range lists {
		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true
			union = append(union, p)
		}
	}
	return union
}

// compareFiles compares every path concurrently and returns the changed files in path order.
func (s *ComparisonService) compareFiles(ctx context.Context, projectID string, paths []string, baseRef, headRef string) []*changelog.FileChange {
	changes := make([]*changelog.FileChange, len(paths))

	runner := parallel.NewRunner(parallel.WithTicket(ConcurrentTicketPerSec), parallel.WithLimit(s.conf.Concurrency))
	for i, p := range paths {
		runner.Add(func(index int, currentPath string) func() (interface{}, error) {
			return func() (interface{}, error) {
				change, err := s.comparator.Compare(ctx, projectID, currentPath, baseRef, headRef)
				if err != nil {
					fileCompareFailures.Inc()
					s.logger.Warn("dropping file from comparison", "project", projectID, "path", currentPath, "error", err.Error())
					return nil, err
				}
				changes[index] = change
				return change, nil
			}
		}(i, p))
	}
	runner.Run()

	files := make([]*changelog.FileChange, 0, len(paths))
	for _, change := range changes {
		if change != nil {
			files = append(files, change)
		}
	}
	return files
}
