package filetree

// WalkFunc is called for every node with the names of its ancestor folders,
// outermost first. Returning false skips a folder's children.
type WalkFunc func(ancestors []string, n Node) bool

// Walk visits nodes depth-first in display order.
func Walk(nodes []Node, fn WalkFunc) {
	walk(nil, nodes, fn)
}

func walk(ancestors []string, nodes []Node, fn WalkFunc) {
	for _, n := range nodes {
		descend := fn(ancestors, n)
		if folder, ok := n.(*Folder); ok && descend {
			// copy so callers may retain ancestors
			next := make([]string, len(ancestors), len(ancestors)+1)
			copy(next, ancestors)
			walk(append(next, folder.Name), folder.Children, fn)
		}
	}
}

// Files returns every file in display order.
func Files(nodes []Node) []*File {
	var files []*File
	Walk(nodes, func(_ []string, n Node) bool {
		if f, ok := n.(*File); ok {
			files = append(files, f)
		}
		return true
	})
	return files
}

// Find returns the file whose full path equals path, or nil.
func Find(nodes []Node, path string) *File {
	for _, f := range Files(nodes) {
		if f.FullPath == path {
			return f
		}
	}
	return nil
}
