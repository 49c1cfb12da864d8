package git

import "context"

const EntityGit = "git"

// Repository lists the content of a repository at a ref.
type Repository interface {
	ListTree(ctx context.Context, projectID any, ref, path string) ([]*Tree, error)
}

// RepositoryFiles reads single files at a ref. A file missing at the ref is returned as nil content
// without error.
type RepositoryFiles interface {
	GetRaw(ctx context.Context, projectID any, ref, fileName string) ([]byte, error)
}

// RefResolver pins a branch, tag or commit ref to the commit SHA it points at right now.
type RefResolver interface {
	ResolveRef(ctx context.Context, projectID any, ref string) (string, error)
}

type Host interface {
	Repository
	RepositoryFiles
	RefResolver
}

// ProjectID builds the identifier both hosts accept for a repository.
func ProjectID(owner, repo string) string {
	return owner + "/" + repo
}
