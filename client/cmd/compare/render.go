package compare

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/xlab/treeprint"

	"github.com/goto/changelogger/core/changelog"
)

type renderer struct {
	w      io.Writer
	radius int

	added     func(a ...interface{}) string
	removed   func(a ...interface{}) string
	separator func(a ...interface{}) string
	header    func(a ...interface{}) string
}

func newRenderer(w io.Writer, radius int) *renderer {
	return &renderer{
		w:         w,
		radius:    radius,
		added:     color.New(color.FgGreen).SprintFunc(),
		removed:   color.New(color.FgRed).SprintFunc(),
		separator: color.New(color.FgCyan).SprintFunc(),
		header:    color.New(color.Bold).SprintFunc(),
	}
}

// Result prints the changed file tree, the windowed diff of each file and the changelog.
func (r *renderer) Result(result *changelog.ComparisonResult) {
	if len(result.Files) == 0 {
		fmt.Fprintln(r.w, "no changed files")
	} else {
		fmt.Fprintln(r.w, r.header("Changed files"))
		fmt.Fprint(r.w, fileTree(result.Files))
		for _, file := range result.Files {
			fmt.Fprintln(r.w)
			r.File(file)
		}
	}

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, r.header("Changelog"))
	fmt.Fprintln(r.w, result.Changelog)
}

func (r *renderer) File(file *changelog.FileChange) {
	additions, removals := file.Stats()
	fmt.Fprintf(r.w, "%s %s\n", r.header(file.Path), fmt.Sprintf("(+%d -%d)", additions, removals))

	for _, seg := range changelog.Window(file.Diff, r.radius) {
		switch seg.Kind {
		case changelog.KindSeparator:
			fmt.Fprintln(r.w, r.separator(seg.Text))
		case changelog.KindAdded:
			r.lines("+ ", seg.Text, r.added)
		case changelog.KindRemoved:
			r.lines("- ", seg.Text, r.removed)
		default:
			r.lines("  ", seg.Text, fmt.Sprint)
		}
	}
}

func (r *renderer) lines(prefix, text string, paint func(a ...interface{}) string) {
	for _, line := range strings.SplitAfter(strings.TrimSuffix(text, "\n"), "\n") {
		fmt.Fprintln(r.w, paint(prefix+strings.TrimSuffix(line, "\n")))
	}
}

// fileTree groups the changed paths by directory.
func fileTree(files []*changelog.FileChange) string {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.Path)
	}
	sort.Strings(paths)

	root := treeprint.New()
	branches := map[string]treeprint.Tree{"": root}
	for _, path := range paths {
		parts := strings.Split(path, "/")
		dir := ""
		parent := root
		for _, part := range parts[:len(parts)-1] {
			dir += part + "/"
			branch, ok := branches[dir]
			if !ok {
				branch = parent.AddBranch(part)
				branches[dir] = branch
			}
			parent = branch
		}
		parent.AddNode(parts[len(parts)-1])
	}
	return root.String()
}
