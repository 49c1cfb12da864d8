package gitlab

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/xanzy/go-gitlab"

	"github.com/goto/changelogger/ext/git"
	"github.com/goto/changelogger/internal/errors"
)

const (
	defaultPerPage = 100
)

type Gitlab struct {
	client *gitlab.Client
}

// ListTree pages through the recursive tree of the project at ref.
func (g *Gitlab) ListTree(ctx context.Context, projectID any, ref, path string) ([]*git.Tree, error) {
	var (
		listTreeOption = &gitlab.ListTreeOptions{
			ListOptions: gitlab.ListOptions{Page: 1, PerPage: defaultPerPage},
			Ref:         gitlab.Ptr(ref),
			Recursive:   gitlab.Ptr(true),
		}
		resp = make([]*git.Tree, 0)
	)
	if path != "" {
		listTreeOption.Path = gitlab.Ptr(path)
	}

	for {
		listTreeResp, apiResp, err := g.client.Repositories.ListTree(projectID, listTreeOption, gitlab.WithContext(ctx))
		if err != nil {
			if apiResp != nil && apiResp.StatusCode == http.StatusNotFound {
				return nil, errors.NotFound(git.EntityGit, "ref "+ref+" not found")
			}
			return nil, errors.Wrap(git.EntityGit, "unable to list tree at "+ref, err)
		}

		for _, tree := range listTreeResp {
			if tree == nil {
				continue
			}
			resp = append(resp, &git.Tree{
				Name: tree.Name,
				Type: tree.Type,
				Path: tree.Path,
			})
		}

		if apiResp == nil || apiResp.NextPage == 0 {
			break
		}
		listTreeOption.Page = apiResp.NextPage
	}

	return resp, nil
}

// ResolveRef returns the id of the commit ref currently points at. A full commit SHA is returned as is.
func (g *Gitlab) ResolveRef(ctx context.Context, projectID any, ref string) (string, error) {
	if git.IsCommitSHA(ref) {
		return ref, nil
	}

	commit, resp, err := g.client.Commits.GetCommit(projectID, ref, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", errors.NotFound(git.EntityGit, "ref "+ref+" not found")
		}
		return "", errors.Wrap(git.EntityGit, "unable to resolve ref "+ref, err)
	}
	return commit.ID, nil
}

// GetRaw returns the raw file content at ref, or nil when the file does not exist there.
func (g *Gitlab) GetRaw(ctx context.Context, projectID any, ref, fileName string) ([]byte, error) {
	var option *gitlab.GetRawFileOptions
	if ref != "" {
		option = &gitlab.GetRawFileOptions{Ref: gitlab.Ptr(ref)}
	}

	buff, resp, err := g.client.RepositoryFiles.GetRawFile(projectID, fileName, option, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(git.EntityGit, "unable to get content of "+fileName+" at "+ref, err)
	}
	if !utf8.Valid(buff) {
		return nil, errors.InvalidArgument(git.EntityGit, fileName+" is not a text file")
	}
	return buff, nil
}

func NewGitlab(baseURL, token string) (*Gitlab, error) {
	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, errors.InvalidArgument(git.EntityGit, "invalid gitlab client options: "+err.Error())
	}

	return &Gitlab{client: client}, nil
}
