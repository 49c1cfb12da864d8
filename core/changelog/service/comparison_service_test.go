package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/core/changelog/service"
	"github.com/goto/changelogger/ext/git"
	oErrors "github.com/goto/changelogger/internal/errors"
)

const projectID = "goto/app"

func blobs(paths ...string) []*git.Tree {
	trees := make([]*git.Tree, 0, len(paths))
	for _, p := range paths {
		trees = append(trees, &git.Tree{Name: p, Type: git.TreeTypeBlob, Path: p})
	}
	return trees
}

// pinRefs makes every ref resolve to a commit of the same name.
func pinRefs(host *mockHost, refs ...string) {
	for _, ref := range refs {
		host.On("ResolveRef", mock.Anything, projectID, ref).Return(ref, nil)
	}
}

func TestFileComparator(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when file is absent at both refs", func(t *testing.T) {
		host := newHost(t)
		host.On("GetRaw", ctx, projectID, "v1", "a.txt").Return(nil, nil)
		host.On("GetRaw", ctx, projectID, "v2", "a.txt").Return(nil, nil)

		change, err := service.NewFileComparator(host).Compare(ctx, projectID, "a.txt", "v1", "v2")

		assert.NoError(t, err)
		assert.Nil(t, change)
	})
	t.Run("returns nil when content is identical", func(t *testing.T) {
		host := newHost(t)
		host.On("GetRaw", ctx, projectID, "v1", "a.txt").Return([]byte("same\n"), nil)
		host.On("GetRaw", ctx, projectID, "v2", "a.txt").Return([]byte("same\n"), nil)

		change, err := service.NewFileComparator(host).Compare(ctx, projectID, "a.txt", "v1", "v2")

		assert.NoError(t, err)
		assert.Nil(t, change)
	})
	t.Run("classifies a new file as a single added segment", func(t *testing.T) {
		host := newHost(t)
		host.On("GetRaw", ctx, projectID, "v1", "a.txt").Return(nil, nil)
		host.On("GetRaw", ctx, projectID, "v2", "a.txt").Return([]byte("X"), nil)

		change, err := service.NewFileComparator(host).Compare(ctx, projectID, "a.txt", "v1", "v2")

		assert.NoError(t, err)
		assert.Equal(t, &changelog.FileChange{Path: "a.txt", Diff: []changelog.DiffSegment{{Kind: changelog.KindAdded, Text: "X"}}}, change)
	})
	t.Run("classifies a deleted file as a single removed segment", func(t *testing.T) {
		host := newHost(t)
		host.On("GetRaw", ctx, projectID, "v1", "a.txt").Return([]byte("X\nY\n"), nil)
		host.On("GetRaw", ctx, projectID, "v2", "a.txt").Return(nil, nil)

		change, err := service.NewFileComparator(host).Compare(ctx, projectID, "a.txt", "v1", "v2")

		assert.NoError(t, err)
		assert.Equal(t, &changelog.FileChange{Path: "a.txt", Diff: []changelog.DiffSegment{{Kind: changelog.KindRemoved, Text: "X\nY\n"}}}, change)
	})
	t.Run("returns line diff of a modified file", func(t *testing.T) {
		host := newHost(t)
		host.On("GetRaw", ctx, projectID, "v1", "b.txt").Return([]byte("foo\nbar\n"), nil)
		host.On("GetRaw", ctx, projectID, "v2", "b.txt").Return([]byte("foo\nbaz\n"), nil)

		change, err := service.NewFileComparator(host).Compare(ctx, projectID, "b.txt", "v1", "v2")

		assert.NoError(t, err)
		assert.Equal(t, "foo\nbar\n", change.Base())
		assert.Equal(t, "foo\nbaz\n", change.Head())
	})
	t.Run("returns error when fetch fails", func(t *testing.T) {
		host := newHost(t)
		host.On("GetRaw", ctx, projectID, "v1", "b.txt").Return(nil, errors.New("rate limited"))

		change, err := service.NewFileComparator(host).Compare(ctx, projectID, "b.txt", "v1", "v2")

		assert.ErrorContains(t, err, "rate limited")
		assert.Nil(t, change)
	})
}

func TestComparisonService(t *testing.T) {
	ctx := context.Background()
	logger := log.NewNoop()
	conf := service.ComparisonConfig{Concurrency: 4, SummaryBudget: 1000, TreeRetryMax: 1}

	t.Run("returns changed files and changelog", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs("a.txt", "b.txt"), nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(blobs("a.txt", "b.txt"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "a.txt").Return([]byte("same\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "a.txt").Return([]byte("same\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "b.txt").Return([]byte("foo\nbar\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "b.txt").Return([]byte("foo\nbaz\n"), nil)

		backend := newTextGenerator(t)
		backend.On("Generate", mock.Anything, service.SystemPrompt, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "b.txt: 1 additions, 1 removals")
		})).Return("# Release\n### 🐛 Bug Fixes\n- Replaced bar with baz", nil)

		generator := service.NewChangelogGenerator(logger, backend)
		svc := service.NewComparisonService(logger, host, generator, conf)

		result, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.NoError(t, err)
		assert.Equal(t, []*changelog.FileChange{{Path: "b.txt", Diff: []changelog.DiffSegment{
			{Kind: changelog.KindUnchanged, Text: "foo\n"},
			{Kind: changelog.KindRemoved, Text: "bar\n"},
			{Kind: changelog.KindAdded, Text: "baz\n"},
		}}}, result.Files)
		assert.NotEmpty(t, result.Changelog)
		assert.NotContains(t, result.Changelog, "# Release")
		for _, line := range strings.Split(result.Changelog, "\n") {
			assert.False(t, strings.HasPrefix(line, "# "))
		}
	})

	t.Run("drops only the file that failed to compare", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs("a.txt", "broken.txt"), nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(blobs("a.txt", "broken.txt", "c.txt"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "a.txt").Return([]byte("1\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "a.txt").Return([]byte("2\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "broken.txt").Return(nil, errors.New("network error"))
		host.On("GetRaw", mock.Anything, projectID, "v1", "c.txt").Return(nil, nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "c.txt").Return([]byte("new\n"), nil)

		generator := newGenerator(t)
		generator.On("Generate", mock.Anything, "a.txt: 1 additions, 1 removals\nc.txt: 1 additions, 0 removals").Return("### ✨ Features\n- Added c.txt", nil)

		svc := service.NewComparisonService(logger, host, generator, conf)

		result, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.NoError(t, err)
		assert.Len(t, result.Files, 2)
		assert.Equal(t, "a.txt", result.Files[0].Path)
		assert.Equal(t, "c.txt", result.Files[1].Path)
	})

	t.Run("keeps union order and skips directories", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return([]*git.Tree{
			{Name: "z.txt", Type: git.TreeTypeBlob, Path: "z.txt"},
			{Name: "dir", Type: git.TreeTypeTree, Path: "dir"},
			{Name: "m.txt", Type: git.TreeTypeBlob, Path: "dir/m.txt"},
		}, nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(blobs("a.txt", "z.txt"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "z.txt").Return([]byte("z\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "z.txt").Return([]byte("zz\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "dir/m.txt").Return([]byte("m\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "dir/m.txt").Return(nil, nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "a.txt").Return(nil, nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "a.txt").Return([]byte("a\n"), nil)

		generator := newGenerator(t)
		generator.On("Generate", mock.Anything, mock.Anything).Return("changes", nil)

		svc := service.NewComparisonService(logger, host, generator, conf)

		result, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.NoError(t, err)
		var paths []string
		for _, f := range result.Files {
			paths = append(paths, f.Path)
		}
		assert.Equal(t, []string{"z.txt", "dir/m.txt", "a.txt"}, paths)
	})

	t.Run("proceeds with empty change set", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs("a.txt"), nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(blobs("a.txt"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "a.txt").Return([]byte("same"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "a.txt").Return([]byte("same"), nil)

		generator := newGenerator(t)
		generator.On("Generate", mock.Anything, "").Return("No changes.", nil)

		svc := service.NewComparisonService(logger, host, generator, conf)

		result, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.NoError(t, err)
		assert.Empty(t, result.Files)
		assert.Equal(t, "No changes.", result.Changelog)
	})

	t.Run("truncates digest to the configured budget", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs(), nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(blobs("a.txt", "b.txt"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", mock.Anything).Return(nil, nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", mock.Anything).Return([]byte("x"), nil)

		generator := newGenerator(t)
		generator.On("Generate", mock.Anything, "a.txt: 1"+changelog.TruncationMarker).Return("changes", nil)

		svc := service.NewComparisonService(logger, host, generator, service.ComparisonConfig{SummaryBudget: 8})

		_, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.NoError(t, err)
	})

	t.Run("fails when a tree cannot be listed", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs("a.txt"), nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(nil, oErrors.InternalError(git.EntityGit, "unable to list tree", nil))

		generator := newGenerator(t)
		svc := service.NewComparisonService(logger, host, generator, conf)

		result, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, oErrors.IsErrorType(err, oErrors.ErrInternalError))
	})

	t.Run("does not retry a ref that does not exist", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs("a.txt"), nil)
		host.On("ResolveRef", mock.Anything, projectID, "missing").
			Return("", oErrors.NotFound(git.EntityGit, "ref missing not found")).Once()

		svc := service.NewComparisonService(logger, host, newGenerator(t),
			service.ComparisonConfig{TreeRetryMax: 3, TreeRetryBackoffMs: 500})

		start := time.Now()
		result, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "missing"})

		assert.Nil(t, result)
		assert.True(t, oErrors.IsErrorType(err, oErrors.ErrNotFound))
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("does not retry listing a tree the host rejects", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs("a.txt"), nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").
			Return(nil, oErrors.NotFound(git.EntityGit, "tree not found")).Once()

		svc := service.NewComparisonService(logger, host, newGenerator(t),
			service.ComparisonConfig{TreeRetryMax: 3, TreeRetryBackoffMs: 500})

		_, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.True(t, oErrors.IsErrorType(err, oErrors.ErrNotFound))
	})

	t.Run("reads files at the commit each ref points to", func(t *testing.T) {
		baseSHA, oldSHA, newSHA := strings.Repeat("1", 40), strings.Repeat("2", 40), strings.Repeat("3", 40)
		host := newHost(t)
		host.On("ResolveRef", mock.Anything, projectID, "main").Return(baseSHA, nil)
		host.On("ResolveRef", mock.Anything, projectID, "feature").Return(oldSHA, nil).Once()
		host.On("ResolveRef", mock.Anything, projectID, "feature").Return(newSHA, nil).Once()
		host.On("ListTree", mock.Anything, projectID, mock.Anything, "").Return(blobs("a.txt"), nil)
		host.On("GetRaw", mock.Anything, projectID, baseSHA, "a.txt").Return([]byte("x\n"), nil).Once()
		host.On("GetRaw", mock.Anything, projectID, oldSHA, "a.txt").Return([]byte("x\n"), nil).Once()
		host.On("GetRaw", mock.Anything, projectID, newSHA, "a.txt").Return([]byte("y\n"), nil).Once()

		generator := newGenerator(t)
		generator.On("Generate", mock.Anything, "").Return("No changes.", nil).Once()
		generator.On("Generate", mock.Anything, "a.txt: 1 additions, 1 removals").Return("### ♻️ Refactoring", nil).Once()

		svc := service.NewComparisonService(logger, git.NewCachedHost(host, 1024, 10*time.Minute), generator, conf)
		req := service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "main", HeadRef: "feature"}

		first, err := svc.Compare(ctx, req)
		assert.NoError(t, err)
		assert.Empty(t, first.Files)

		second, err := svc.Compare(ctx, req)
		assert.NoError(t, err)
		assert.Len(t, second.Files, 1)
		assert.Equal(t, "x\n", second.Files[0].Base())
		assert.Equal(t, "y\n", second.Files[0].Head())
	})

	t.Run("retries listing a tree when configured", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(nil, errors.New("timeout")).Once()
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs(), nil).Once()
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(blobs(), nil)

		generator := newGenerator(t)
		generator.On("Generate", mock.Anything, "").Return("No changes.", nil)

		svc := service.NewComparisonService(logger, host, generator, service.ComparisonConfig{TreeRetryMax: 2, TreeRetryBackoffMs: 1})

		_, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.NoError(t, err)
	})

	t.Run("fails when generation fails", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "v1", "v2")
		host.On("ListTree", mock.Anything, projectID, "v1", "").Return(blobs("a.txt"), nil)
		host.On("ListTree", mock.Anything, projectID, "v2", "").Return(blobs("a.txt"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v1", "a.txt").Return([]byte("1"), nil)
		host.On("GetRaw", mock.Anything, projectID, "v2", "a.txt").Return([]byte("2"), nil)

		backend := newTextGenerator(t)
		backend.On("Generate", mock.Anything, service.SystemPrompt, mock.Anything).Return("", errors.New("quota exceeded"))

		svc := service.NewComparisonService(logger, host, service.NewChangelogGenerator(logger, backend), conf)

		result, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"})

		assert.ErrorContains(t, err, "quota exceeded")
		assert.Nil(t, result)
	})

	t.Run("rejects request with missing fields", func(t *testing.T) {
		svc := service.NewComparisonService(logger, newHost(t), newGenerator(t), conf)

		_, err := svc.Compare(ctx, service.CompareRequest{Owner: "goto", BaseRef: "v1"})

		assert.True(t, oErrors.IsErrorType(err, oErrors.ErrInvalidArgument))
		assert.ErrorContains(t, err, "repo is empty")
		assert.ErrorContains(t, err, "headRef is empty")
	})
}

func TestComparisonService_CompareFile(t *testing.T) {
	ctx := context.Background()
	logger := log.NewNoop()
	conf := service.ComparisonConfig{Concurrency: 4, SummaryBudget: 1000, TreeRetryMax: 1}
	req := service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "main", HeadRef: "feature"}

	t.Run("generates the changelog from the unified diff of the path", func(t *testing.T) {
		host := newHost(t)
		host.On("ResolveRef", mock.Anything, projectID, "main").Return("c1", nil)
		host.On("ResolveRef", mock.Anything, projectID, "feature").Return("c2", nil)
		host.On("GetRaw", mock.Anything, projectID, "c1", "main.go").Return([]byte("a\nb\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "c2", "main.go").Return([]byte("a\nc\n"), nil)

		generator := newGenerator(t)
		generator.On("GenerateFromDiff", mock.Anything, "main.go", "  a\n- b\n+ c\n").Return("### ♻️ Refactoring\n- Replaced b", nil)
		svc := service.NewComparisonService(logger, host, generator, conf)

		result, err := svc.CompareFile(ctx, req, "main.go")

		assert.NoError(t, err)
		assert.Len(t, result.Files, 1)
		assert.Equal(t, "main.go", result.Files[0].Path)
		assert.Equal(t, "### ♻️ Refactoring\n- Replaced b", result.Changelog)
		host.AssertNotCalled(t, "ListTree", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back to the empty digest when the path did not change", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "main", "feature")
		host.On("GetRaw", mock.Anything, projectID, "main", "README.md").Return([]byte("same\n"), nil)
		host.On("GetRaw", mock.Anything, projectID, "feature", "README.md").Return([]byte("same\n"), nil)

		generator := newGenerator(t)
		generator.On("Generate", mock.Anything, "").Return("No changes.", nil)
		svc := service.NewComparisonService(logger, host, generator, conf)

		result, err := svc.CompareFile(ctx, req, "README.md")

		assert.NoError(t, err)
		assert.Empty(t, result.Files)
		assert.Equal(t, "No changes.", result.Changelog)
	})

	t.Run("fails when the file cannot be fetched", func(t *testing.T) {
		host := newHost(t)
		pinRefs(host, "main", "feature")
		host.On("GetRaw", mock.Anything, projectID, "main", "main.go").Return(nil, errors.New("connection reset"))
		svc := service.NewComparisonService(logger, host, newGenerator(t), conf)

		result, err := svc.CompareFile(ctx, req, "main.go")

		assert.ErrorContains(t, err, "connection reset")
		assert.Nil(t, result)
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		svc := service.NewComparisonService(logger, newHost(t), newGenerator(t), conf)

		_, err := svc.CompareFile(ctx, req, " ")

		assert.True(t, oErrors.IsErrorType(err, oErrors.ErrInvalidArgument))
	})
}
