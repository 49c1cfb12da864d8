package github

import (
	"context"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/go-github/v59/github"
	"github.com/goto/salt/log"

	"github.com/goto/changelogger/ext/git"
	"github.com/goto/changelogger/internal/errors"
)

const totalSegmentProjectID = 2

type Github struct {
	client *github.Client
	logger log.Logger
}

// GetOwnerAndRepoName splits a project id of the form owner/repo.
func (*Github) GetOwnerAndRepoName(projectID any) (owner, repo string, err error) {
	value, ok := projectID.(string)
	if !ok {
		return "", "", errors.InvalidArgument(git.EntityGit, "unsupported project ID format for github")
	}

	splitProjectID := strings.SplitN(value, "/", totalSegmentProjectID)
	if len(splitProjectID) != totalSegmentProjectID || splitProjectID[0] == "" || splitProjectID[1] == "" {
		return "", "", errors.InvalidArgument(git.EntityGit, "unsupported project ID format for github, it should {{owner}}/{{repo}}")
	}
	return splitProjectID[0], splitProjectID[1], nil
}

// ListTree lists the whole tree at ref with a single recursive request, filtered to entries under path.
func (g *Github) ListTree(ctx context.Context, projectID any, ref, treePath string) ([]*git.Tree, error) {
	owner, repo, err := g.GetOwnerAndRepoName(projectID)
	if err != nil {
		return nil, err
	}

	tree, resp, err := g.client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, errors.NotFound(git.EntityGit, "ref "+ref+" not found in "+owner+"/"+repo)
		}
		return nil, errors.Wrap(git.EntityGit, "unable to list tree at "+ref, err)
	}

	if tree.GetTruncated() {
		g.logger.Warn("github truncated the tree listing, only part of the files will be compared",
			"project", owner+"/"+repo, "ref", ref, "entries", len(tree.Entries))
	}

	prefix := strings.Trim(treePath, "/")
	result := make([]*git.Tree, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry == nil {
			continue
		}
		if prefix != "" && !strings.HasPrefix(entry.GetPath(), prefix+"/") {
			continue
		}
		result = append(result, &git.Tree{
			Name: path.Base(entry.GetPath()),
			Type: entry.GetType(),
			Path: entry.GetPath(),
		})
	}
	return result, nil
}

// ResolveRef returns the commit SHA ref currently points at. A full commit SHA is returned as is.
func (g *Github) ResolveRef(ctx context.Context, projectID any, ref string) (string, error) {
	owner, repo, err := g.GetOwnerAndRepoName(projectID)
	if err != nil {
		return "", err
	}
	if git.IsCommitSHA(ref) {
		return ref, nil
	}

	sha, resp, err := g.client.Repositories.GetCommitSHA1(ctx, owner, repo, ref, "")
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity) {
			return "", errors.NotFound(git.EntityGit, "ref "+ref+" not found in "+owner+"/"+repo)
		}
		return "", errors.Wrap(git.EntityGit, "unable to resolve ref "+ref, err)
	}
	return strings.TrimSpace(sha), nil
}

// GetRaw returns the decoded file content at ref, or nil when the file does not exist there.
func (g *Github) GetRaw(ctx context.Context, projectID any, ref, fileName string) ([]byte, error) {
	owner, repo, err := g.GetOwnerAndRepoName(projectID)
	if err != nil {
		return nil, err
	}

	option := &github.RepositoryContentGetOptions{Ref: ref}
	fileContent, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, fileName, option)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(git.EntityGit, "unable to get content of "+fileName+" at "+ref, err)
	}
	if fileContent == nil {
		return nil, errors.InvalidArgument(git.EntityGit, fileName+" is not a file at "+ref)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, errors.Wrap(git.EntityGit, "unable to decode content of "+fileName, err)
	}
	if !utf8.ValidString(content) {
		return nil, errors.InvalidArgument(git.EntityGit, fileName+" is not a text file")
	}
	return []byte(content), nil
}

func NewGithub(logger log.Logger, baseURL, token string) (*Github, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, errors.InvalidArgument(git.EntityGit, "invalid github base url: "+err.Error())
		}
	}

	return &Github{client: client, logger: logger}, nil
}
