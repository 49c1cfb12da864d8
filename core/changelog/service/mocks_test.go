package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/ext/git"
)

type mockConstructorTestingT interface {
	mock.TestingT
	Cleanup(func())
}

type mockHost struct {
	mock.Mock
}

func (m *mockHost) ListTree(ctx context.Context, projectID any, ref, path string) ([]*git.Tree, error) {
	args := m.Called(ctx, projectID, ref, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*git.Tree), args.Error(1)
}

func (m *mockHost) GetRaw(ctx context.Context, projectID any, ref, fileName string) ([]byte, error) {
	args := m.Called(ctx, projectID, ref, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockHost) ResolveRef(ctx context.Context, projectID any, ref string) (string, error) {
	args := m.Called(ctx, projectID, ref)
	return args.String(0), args.Error(1)
}

func newHost(t mockConstructorTestingT) *mockHost {
	mock := &mockHost{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

type mockTextGenerator struct {
	mock.Mock
}

func (m *mockTextGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

func newTextGenerator(t mockConstructorTestingT) *mockTextGenerator {
	mock := &mockTextGenerator{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, digest string) (string, error) {
	args := m.Called(ctx, digest)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) GenerateFromDiff(ctx context.Context, path, unifiedDiff string) (string, error) {
	args := m.Called(ctx, path, unifiedDiff)
	return args.String(0), args.Error(1)
}

func newGenerator(t mockConstructorTestingT) *mockGenerator {
	mock := &mockGenerator{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

type mockChangelogRepository struct {
	mock.Mock
}

func (m *mockChangelogRepository) Upsert(ctx context.Context, entry *changelog.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockChangelogRepository) GetByRepository(ctx context.Context, owner, repo string, onlyPublished bool) ([]*changelog.Entry, error) {
	args := m.Called(ctx, owner, repo, onlyPublished)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*changelog.Entry), args.Error(1)
}

func newChangelogRepository(t mockConstructorTestingT) *mockChangelogRepository {
	mock := &mockChangelogRepository{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
