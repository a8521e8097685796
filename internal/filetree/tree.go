// Package filetree turns a flat set of changed paths into a folder/file hierarchy.
package filetree

import (
	"sort"
	"strings"

	"github.com/Elpulgo/azdo-prtree/internal/changes"
)

// Kind distinguishes folders from files.
type Kind int

const (
	KindFolder Kind = iota
	KindFile
)

// Node is either a *Folder or a *File.
type Node interface {
	Kind() Kind
	DisplayName() string
	node()
}

// Folder is an interior node. Folders are never empty.
type Folder struct {
	Name     string
	Children []Node
}

// File is a leaf carrying the change that produced it.
type File struct {
	Name     string
	FullPath string
	Change   changes.ChangeRecord
}

func (f *Folder) Kind() Kind          { return KindFolder }
func (f *Folder) DisplayName() string { return f.Name }
func (f *Folder) node()               {}

func (f *File) Kind() Kind          { return KindFile }
func (f *File) DisplayName() string { return f.Name }
func (f *File) node()               {}

// Build converts path → record into root nodes. At every level folders come
// before files and each group is sorted by name. Build is deterministic and
// never fails: a key with no path segments becomes a top-level file named
// after the raw key. Keys are expected in changes.NormalizePath form; repeated
// separators are not collapsed here.
func Build(records map[string]changes.ChangeRecord) []Node {
	if len(records) == 0 {
		return nil
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := &Folder{}
	// folders by their joined path, so lookups don't scan siblings
	folders := map[string]*Folder{"": root}

	for _, key := range keys {
		record := records[key]

		segments := splitPath(key)
		if len(segments) == 0 {
			root.Children = append(root.Children, &File{Name: key, FullPath: key, Change: record})
			continue
		}

		parent := root
		prefix := ""
		for _, segment := range segments[:len(segments)-1] {
			prefix += "/" + segment
			folder, ok := folders[prefix]
			if !ok {
				folder = &Folder{Name: segment}
				folders[prefix] = folder
				parent.Children = append(parent.Children, folder)
			}
			parent = folder
		}

		parent.Children = append(parent.Children, &File{
			Name:     segments[len(segments)-1],
			FullPath: key,
			Change:   record,
		})
	}

	sortNodes(root.Children)
	return root.Children
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}

func sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return less(nodes[i], nodes[j])
	})
	for _, n := range nodes {
		if folder, ok := n.(*Folder); ok {
			sortNodes(folder.Children)
		}
	}
}

func less(a, b Node) bool {
	if a.Kind() != b.Kind() {
		return a.Kind() == KindFolder
	}
	if a.DisplayName() != b.DisplayName() {
		return a.DisplayName() < b.DisplayName()
	}
	// same-named files can only come from keys differing in separators
	fa, aok := a.(*File)
	fb, bok := b.(*File)
	if aok && bok {
		return fa.FullPath < fb.FullPath
	}
	return false
}
