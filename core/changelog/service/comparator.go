package service

import (
	"context"

	"github.com/goto/changelogger/core/changelog"
	"github.com/goto/changelogger/ext/git"
	"github.com/goto/changelogger/internal/errors"
)

type FileComparator struct {
	files git.RepositoryFiles
}

func NewFileComparator(files git.RepositoryFiles) *FileComparator {
	return &FileComparator{files: files}
}

// Compare classifies how path changed between baseRef and headRef.
// It returns nil without error when the file is unchanged or absent at both refs.
func (c *FileComparator) Compare(ctx context.Context, projectID, path, baseRef, headRef string) (*changelog.FileChange, error) {
	base, err := c.fetch(ctx, projectID, changelog.FileRef{Path: path, Ref: baseRef})
	if err != nil {
		return nil, err
	}
	head, err := c.fetch(ctx, projectID, changelog.FileRef{Path: path, Ref: headRef})
	if err != nil {
		return nil, err
	}

	switch {
	case base == "" && head == "":
		return nil, nil
	case base == "":
		return &changelog.FileChange{Path: path, Diff: []changelog.DiffSegment{{Kind: changelog.KindAdded, Text: head}}}, nil
	case head == "":
		return &changelog.FileChange{Path: path, Diff: []changelog.DiffSegment{{Kind: changelog.KindRemoved, Text: base}}}, nil
	}

	change := &changelog.FileChange{Path: path, Diff: changelog.LineDiff(base, head)}
	if change.Validate() != nil {
		return nil, nil
	}
	return change, nil
}

func (c *FileComparator) fetch(ctx context.Context, projectID string, ref changelog.FileRef) (string, error) {
	content, err := c.files.GetRaw(ctx, projectID, ref.Ref, ref.Path)
	if err != nil {
		return "", errors.Wrap(changelog.EntityDiff, "unable to fetch "+ref.Path+" at "+ref.Ref, err)
	}
	return string(content), nil
}
