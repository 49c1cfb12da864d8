package v1beta1_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goto/salt/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/goto/changelogger/core/changelog"
	v1 "github.com/goto/changelogger/core/changelog/handler/v1beta1"
	"github.com/goto/changelogger/core/changelog/service"
	"github.com/goto/changelogger/internal/errors"
)

func serve(h *v1.ChangelogHandler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestChangelogHandler(t *testing.T) {
	logger := log.NewNoop()

	t.Run("Compare", func(t *testing.T) {
		t.Run("returns bad request for malformed body", func(t *testing.T) {
			h := v1.NewChangelogHandler(logger, newComparisonService(t), newChangelogService(t))

			rec := serve(h, http.MethodPost, "/api/compare", "{")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid request body")
		})
		t.Run("returns comparison result", func(t *testing.T) {
			comparison := newComparisonService(t)
			req := service.CompareRequest{Owner: "goto", Repo: "app", BaseRef: "v1", HeadRef: "v2"}
			comparison.On("Compare", mock.Anything, req).Return(&changelog.ComparisonResult{
				Files: []*changelog.FileChange{{Path: "a.txt", Diff: []changelog.DiffSegment{
					{Kind: changelog.KindRemoved, Text: "x\n"},
					{Kind: changelog.KindAdded, Text: "y\n"},
				}}},
				Changelog: "### 🐛 Bug Fixes\n- Replaced x",
			}, nil)
			h := v1.NewChangelogHandler(logger, comparison, newChangelogService(t))

			rec := serve(h, http.MethodPost, "/api/compare", `{"owner":"goto","repo":"app","baseRef":"v1","headRef":"v2"}`)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{
				"files":[{"path":"a.txt","diff":[{"type":"removed","value":"x\n"},{"type":"added","value":"y\n"}]}],
				"changelog":"### 🐛 Bug Fixes\n- Replaced x"
			}`, rec.Body.String())
		})
		t.Run("maps not found to 404", func(t *testing.T) {
			comparison := newComparisonService(t)
			comparison.On("Compare", mock.Anything, mock.Anything).Return(nil, errors.NotFound("git", "ref v9 not found"))
			h := v1.NewChangelogHandler(logger, comparison, newChangelogService(t))

			rec := serve(h, http.MethodPost, "/api/compare", `{"owner":"goto","repo":"app","baseRef":"v9","headRef":"v2"}`)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "ref v9 not found")
		})
		t.Run("hides internal error details", func(t *testing.T) {
			comparison := newComparisonService(t)
			comparison.On("Compare", mock.Anything, mock.Anything).Return(nil, errors.InternalError("generator", "quota", nil))
			h := v1.NewChangelogHandler(logger, comparison, newChangelogService(t))

			rec := serve(h, http.MethodPost, "/api/compare", `{"owner":"goto","repo":"app","baseRef":"v1","headRef":"v2"}`)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"unable to compare refs"}`, rec.Body.String())
		})
	})

	t.Run("Publish", func(t *testing.T) {
		t.Run("stores the entry with its files", func(t *testing.T) {
			changelogs := newChangelogService(t)
			changelogs.On("Publish", mock.Anything, mock.MatchedBy(func(e *changelog.Entry) bool {
				return e.Owner == "goto" && e.Version == "v2" && e.IsPublished &&
					e.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
			}), mock.MatchedBy(func(files []*changelog.FileChange) bool {
				return len(files) == 1 && files[0].Path == "a.txt"
			})).Return(nil)
			h := v1.NewChangelogHandler(logger, newComparisonService(t), changelogs)

			rec := serve(h, http.MethodPost, "/api/changelog", `{
				"owner":"goto","repo":"app","version":"v2","content":"notes","isPublished":true,
				"date":"2024-03-01T00:00:00Z",
				"files":[{"path":"a.txt","diff":[{"type":"added","value":"y"}]}]
			}`)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"version":"v2"`)
		})
		t.Run("rejects unknown segment kinds", func(t *testing.T) {
			h := v1.NewChangelogHandler(logger, newComparisonService(t), newChangelogService(t))

			rec := serve(h, http.MethodPost, "/api/changelog", `{"owner":"goto","repo":"app","version":"v2",
				"files":[{"path":"a.txt","diff":[{"type":"moved","value":"y"}]}]}`)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
		t.Run("rejects files without changes", func(t *testing.T) {
			h := v1.NewChangelogHandler(logger, newComparisonService(t), newChangelogService(t))

			rec := serve(h, http.MethodPost, "/api/changelog", `{"owner":"goto","repo":"app","version":"v2",
				"files":[{"path":"a.txt","diff":[{"type":"unchanged","value":"y"}]}]}`)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
		t.Run("returns validation error from service", func(t *testing.T) {
			changelogs := newChangelogService(t)
			changelogs.On("Publish", mock.Anything, mock.Anything, mock.Anything).
				Return(errors.InvalidArgument(changelog.EntityChangelog, "version is empty"))
			h := v1.NewChangelogHandler(logger, newComparisonService(t), changelogs)

			rec := serve(h, http.MethodPost, "/api/changelog", `{"owner":"goto","repo":"app"}`)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "version is empty")
		})
	})

	t.Run("ListPublished", func(t *testing.T) {
		t.Run("returns entries matching the query", func(t *testing.T) {
			changelogs := newChangelogService(t)
			changelogs.On("GetPublished", mock.Anything, "goto", "app", "fix").Return([]*changelog.Entry{
				{Owner: "goto", Repo: "app", Version: "v2", Content: "fix", IsPublished: true, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			}, nil)
			h := v1.NewChangelogHandler(logger, newComparisonService(t), changelogs)

			rec := serve(h, http.MethodGet, "/api/changelog/goto/app?q=fix", "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[{"owner":"goto","repo":"app","version":"v2","content":"fix","changes":null,"isPublished":true,"date":"2024-03-01T00:00:00Z"}]`, rec.Body.String())
		})
		t.Run("returns empty list instead of null", func(t *testing.T) {
			changelogs := newChangelogService(t)
			changelogs.On("GetPublished", mock.Anything, "goto", "app", "").Return(nil, nil)
			h := v1.NewChangelogHandler(logger, newComparisonService(t), changelogs)

			rec := serve(h, http.MethodGet, "/api/changelog/goto/app", "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[]`, rec.Body.String())
		})
	})
}

type comparisonService struct {
	mock.Mock
}

func (m *comparisonService) Compare(ctx context.Context, req service.CompareRequest) (*changelog.ComparisonResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*changelog.ComparisonResult), args.Error(1)
}

type changelogService struct {
	mock.Mock
}

func (m *changelogService) Publish(ctx context.Context, entry *changelog.Entry, files []*changelog.FileChange) error {
	return m.Called(ctx, entry, files).Error(0)
}

func (m *changelogService) GetPublished(ctx context.Context, owner, repo, term string) ([]*changelog.Entry, error) {
	args := m.Called(ctx, owner, repo, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*changelog.Entry), args.Error(1)
}

type mockConstructorTestingT interface {
	mock.TestingT
	Cleanup(func())
}

func newComparisonService(t mockConstructorTestingT) *comparisonService {
	m := &comparisonService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func newChangelogService(t mockConstructorTestingT) *changelogService {
	m := &changelogService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
