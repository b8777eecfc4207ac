package ntuple

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/raphaelgruber/rdxrw/internal/truth"
)

// ErrMissingBranch is returned by Open when a required branch is absent.
var ErrMissingBranch = errors.New("missing branch")

// Source reads truth candidates from one tree of a ROOT file.
type Source struct {
	f        *riofs.File
	tree     rtree.Tree
	bindings []binding
	vars     []rtree.ReadVar
}

// Open opens the tree t of the file at path.
func Open(path string, t Tree) (*Source, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	src, err := newSource(f, t)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return src, nil
}

func newSource(f *riofs.File, t Tree) (*Source, error) {
	obj, err := riofs.Dir(f).Get(t.Path)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", t.Path, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a tree", t.Path, obj.Class())
	}

	available := make(map[string]rtree.ReadVar)
	for _, rv := range rtree.NewReadVars(tree) {
		available[rv.Name] = rv
	}

	src := &Source{f: f, tree: tree}
	var missing []string
	for _, b := range bindings(t.Prefix) {
		rv, ok := available[b.name]
		if !ok {
			if !b.optional {
				missing = append(missing, b.name)
			}
			continue
		}
		src.bindings = append(src.bindings, b)
		src.vars = append(src.vars, rv)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("tree %s: %w: %s", t.Path, ErrMissingBranch, strings.Join(missing, ", "))
	}
	return src, nil
}

// Entries returns the number of candidates in the tree.
func (s *Source) Entries() int64 {
	return s.tree.Entries()
}

// Each calls fn for every candidate in entry order. It stops at the first
// error returned by fn or when ctx is done.
func (s *Source) Each(ctx context.Context, fn func(truth.Event) error) error {
	r, err := rtree.NewReader(s.tree, s.vars)
	if err != nil {
		return fmt.Errorf("create reader: %w", err)
	}
	defer r.Close()

	return r.Read(func(rctx rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ev truth.Event
		for i, b := range s.bindings {
			if err := b.set(&ev, s.vars[i].Value); err != nil {
				return fmt.Errorf("entry %d: %s: %w", rctx.Entry, b.name, err)
			}
		}
		return fn(ev)
	})
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}
