package git

const (
	TreeTypeBlob = "blob"
	TreeTypeTree = "tree"
)

type Tree struct {
	Name string
	Type string
	Path string
}

func (t *Tree) IsFile() bool {
	return t != nil && t.Type == TreeTypeBlob
}

type Trees []*Tree

// FilePaths returns the paths of file entries, skipping directories and submodules.
func (trees Trees) FilePaths() []string {
	paths := make([]string, 0, len(trees))
	for _, tree := range trees {
		if tree.IsFile() {
			paths = append(paths, tree.Path)
		}
	}
	return paths
}
