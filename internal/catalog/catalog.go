// Package catalog turns the platform's list document into decryption jobs.
//
// The list document is either raw JSON of the form
//
//	{"data":[{"numName":"Chapter 1","children":[{"numName":"v001"}]}]}
//
// or a shared-preferences XML file with that JSON HTML-escaped inside one of
// its <string> entries. A node with a "children" array is a directory; every
// other node is a leaf naming a .pcm file.
package catalog

import (
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"pcmdec/internal/core/domain"
	"pcmdec/internal/keystore"
)

const (
	InputExt  = ".pcm"
	OutputExt = ".mp4"
)

var ErrNoCatalog = errors.New("no catalog data found in document")

var entryPattern = regexp.MustCompile(keystore.DefaultPattern)

// Node is a catalog entry: either *Directory or *Leaf.
type Node interface {
	NodeName() string
	isNode()
}

type Directory struct {
	Name     string
	Children []Node
}

type Leaf struct {
	Name string
}

func (d *Directory) NodeName() string { return d.Name }
func (l *Leaf) NodeName() string      { return l.Name }

func (*Directory) isNode() {}
func (*Leaf) isNode()      {}

// ParseDocument extracts the catalog tree from a list document.
func ParseDocument(text string, logger *zap.Logger) ([]Node, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if trimmed := strings.TrimSpace(text); gjson.Valid(trimmed) {
		if data := gjson.Get(trimmed, "data"); data.IsArray() {
			return parseNodes(data, logger), nil
		}
	}

	for _, m := range entryPattern.FindAllStringSubmatch(text, -1) {
		value := html.UnescapeString(keystore.Trim(m[2]))
		if !gjson.Valid(value) {
			continue
		}
		if data := gjson.Get(value, "data"); data.IsArray() {
			logger.Debug("catalog found in document entry", zap.String("entry", m[1]))
			return parseNodes(data, logger), nil
		}
	}
	return nil, ErrNoCatalog
}

func parseNodes(arr gjson.Result, logger *zap.Logger) []Node {
	var nodes []Node
	for _, item := range arr.Array() {
		name := keystore.Trim(item.Get("numName").String())
		if !validName(name) {
			logger.Warn("skipping catalog entry with invalid name", zap.String("name", name))
			continue
		}

		if children := item.Get("children"); children.IsArray() {
			nodes = append(nodes, &Directory{Name: name, Children: parseNodes(children, logger)})
		} else {
			nodes = append(nodes, &Leaf{Name: name})
		}
	}
	return nodes
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Walk flattens the tree into jobs. Directories map to nested directories
// under destRoot; a leaf named N reads <sourceDir>/N.pcm and writes N.mp4.
func Walk(nodes []Node, sourceDir, destRoot string) []domain.Job {
	var jobs []domain.Job
	walk(nodes, sourceDir, destRoot, &jobs)
	return jobs
}

func walk(nodes []Node, sourceDir, base string, jobs *[]domain.Job) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Directory:
			walk(n.Children, sourceDir, filepath.Join(base, n.Name), jobs)
		case *Leaf:
			*jobs = append(*jobs, domain.Job{
				InputPath:  filepath.Join(sourceDir, n.Name+InputExt),
				OutputPath: filepath.Join(base, n.Name+OutputExt),
				VideoID:    n.Name,
			})
		}
	}
}

// Directories lists the output directory of every directory node, parents
// before children, including directories with no leaves.
func Directories(nodes []Node, destRoot string) []string {
	var dirs []string
	directories(nodes, destRoot, &dirs)
	return dirs
}

func directories(nodes []Node, base string, dirs *[]string) {
	for _, n := range nodes {
		if d, ok := n.(*Directory); ok {
			path := filepath.Join(base, d.Name)
			*dirs = append(*dirs, path)
			directories(d.Children, path, dirs)
		}
	}
}

// MakeDirs creates the output directory tree described by nodes.
func MakeDirs(nodes []Node, destRoot string) error {
	for _, dir := range Directories(nodes, destRoot) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(domain.ErrIO, "failed to create directory %s: %v", dir, err)
		}
	}
	return nil
}
