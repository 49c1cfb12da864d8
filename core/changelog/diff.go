package changelog

import (
	"encoding/json"
	"strings"

	"github.com/goto/changelogger/internal/errors"
	"github.com/goto/changelogger/internal/utils"
)

const (
	EntityDiff = "diff"

	SeparatorText = "..."
)

type Kind string

const (
	KindAdded     Kind = "added"
	KindRemoved   Kind = "removed"
	KindUnchanged Kind = "unchanged"
	KindSeparator Kind = "separator"
)

func (k Kind) String() string {
	return string(k)
}

func KindFrom(value string) (Kind, error) {
	switch Kind(value) {
	case KindAdded, KindRemoved, KindUnchanged, KindSeparator:
		return Kind(value), nil
	default:
		return "", errors.InvalidArgument(EntityDiff, "unknown diff segment type: "+value)
	}
}

// IsChange reports whether the kind marks an addition or a removal.
func (k Kind) IsChange() bool {
	return k == KindAdded || k == KindRemoved
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.InvalidArgument(EntityDiff, "diff segment type should be a string")
	}

	kind, err := KindFrom(value)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

type DiffSegment struct {
	Kind Kind   `json:"type"`
	Text string `json:"value"`
}

type FileRef struct {
	Path string
	Ref  string
}

type FileChange struct {
	Path string        `json:"path"`
	Diff []DiffSegment `json:"diff"`
}

func (f *FileChange) Validate() error {
	if f == nil || f.Path == "" {
		return errors.InvalidArgument(EntityDiff, "file change path is empty")
	}
	if !hasChange(f.Diff) {
		return errors.InvalidArgument(EntityDiff, "file change for "+f.Path+" has no added or removed segment")
	}
	return nil
}

// Stats counts the added and removed segments of the diff.
func (f *FileChange) Stats() (additions, removals int) {
	for _, seg := range f.Diff {
		switch seg.Kind {
		case KindAdded:
			additions++
		case KindRemoved:
			removals++
		}
	}
	return additions, removals
}

// Base reconstructs the content at the base ref.
func (f *FileChange) Base() string {
	return f.rebuild(KindRemoved)
}

// Head reconstructs the content at the head ref.
func (f *FileChange) Head() string {
	return f.rebuild(KindAdded)
}

// Unified renders the change as prefixed lines, the way a reader scans a patch.
func (f *FileChange) Unified() string {
	return utils.RenderDiff(runsOf(f.Diff))
}

func (f *FileChange) rebuild(keep Kind) string {
	var b strings.Builder
	for _, seg := range f.Diff {
		if seg.Kind == KindUnchanged || seg.Kind == keep {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

type ComparisonResult struct {
	Files     []*FileChange `json:"files"`
	Changelog string        `json:"changelog"`
}

// LineDiff returns the line level diff between base and head as maximal segments.
func LineDiff(base, head string) []DiffSegment {
	runs := utils.DiffLines(utils.SplitLines(base), utils.SplitLines(head))

	segments := make([]DiffSegment, 0, len(runs))
	for _, run := range runs {
		segments = append(segments, DiffSegment{
			Kind: kindFromOperation(run.Op),
			Text: run.Text(),
		})
	}
	return segments
}

func kindFromOperation(op utils.Operation) Kind {
	switch op {
	case utils.ADD:
		return KindAdded
	case utils.SUB:
		return KindRemoved
	default:
		return KindUnchanged
	}
}

func hasChange(diff []DiffSegment) bool {
	return utils.HasChanges(runsOf(diff))
}

// runsOf maps segments back to line runs. Separators carry no content of either
// side and are dropped.
func runsOf(diff []DiffSegment) []utils.Run {
	runs := make([]utils.Run, 0, len(diff))
	for _, seg := range diff {
		var op utils.Operation
		switch seg.Kind {
		case KindAdded:
			op = utils.ADD
		case KindRemoved:
			op = utils.SUB
		case KindUnchanged:
			op = utils.EQ
		default:
			continue
		}
		runs = append(runs, utils.Run{Op: op, Lines: utils.SplitLines(seg.Text)})
	}
	return runs
}
