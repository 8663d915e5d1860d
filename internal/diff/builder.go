// Package diff builds structural diff trees from two decoded documents.
//
// The tree mirrors the shape of the inputs. Objects are compared key by key
// over the union of both key sets. Arrays carry no stable element identity, so
// their elements are paired by structural similarity (objects exposing the
// same field names) or deep equality instead of by position.
package diff

import (
	"fmt"
	"regexp"

	"github.com/mcncl/treediff/internal/errors"
	"github.com/mcncl/treediff/internal/models"
)

// Matching selects how array elements are paired.
type Matching string

const (
	// MatchPermissive pairs every similar or equal combination of elements.
	// Matched elements stay in the candidate pool, so one element may appear
	// in several pairs.
	MatchPermissive Matching = "permissive"
	// MatchExclusive pairs each element at most once: equal elements first,
	// then similar ones, in document order.
	MatchExclusive Matching = "exclusive"
)

// Options configures a Builder.
type Options struct {
	ArrayMatching Matching
	// NormalizeChanged applies Normalize to finished trees built by Diff.
	NormalizeChanged bool
	// MaxDepth bounds the nesting depth that is compared. 0 means unlimited.
	MaxDepth int
	// Ignore drops every node whose path matches one of the patterns, along
	// with its subtree.
	Ignore []*regexp.Regexp
}

// Option adjusts Options. Zero or more Options can be passed to NewBuilder.
type Option func(*Options)

// WithArrayMatching selects the array pairing strategy.
func WithArrayMatching(m Matching) Option {
	return func(o *Options) {
		o.ArrayMatching = m
	}
}

// WithNormalizeChanged toggles the changed-to-removed normalization pass.
func WithNormalizeChanged(enabled bool) Option {
	return func(o *Options) {
		o.NormalizeChanged = enabled
	}
}

// WithMaxDepth bounds the comparison depth.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

// WithIgnore adds path patterns to leave out of the tree.
func WithIgnore(patterns ...*regexp.Regexp) Option {
	return func(o *Options) {
		o.Ignore = append(o.Ignore, patterns...)
	}
}

// Builder compares documents. A Builder holds no state between calls and is
// safe for concurrent use.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder with the given options applied over the
// defaults: permissive matching, no normalization, unlimited depth.
func NewBuilder(opts ...Option) *Builder {
	o := Options{ArrayMatching: MatchPermissive}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ArrayMatching == "" {
		o.ArrayMatching = MatchPermissive
	}
	return &Builder{opts: o}
}

// Options returns the effective options of the builder.
func (b *Builder) Options() Options {
	return b.opts
}

// Compare returns the tree produced by a default Builder. It never fails
// since no depth limit applies.
func Compare(before, after models.Value, path, key string) *Node {
	n, _ := NewBuilder().Compare(before, after, path, key)
	return n
}

// Diff compares two whole documents starting from the root and applies the
// normalization pass when enabled.
func (b *Builder) Diff(before, after models.Value) (*Node, error) {
	root, err := b.Compare(before, after, "", RootKey)
	if err != nil {
		return nil, err
	}
	if b.opts.NormalizeChanged {
		Normalize(root)
	}
	return root, nil
}

// Compare builds the diff tree of before and after. path and key are given to
// the returned node; descendants extend them. A nil value stands for a missing
// side. The only error is an errors.ErrInputTooDeep diff error when MaxDepth
// is exceeded.
func (b *Builder) Compare(before, after models.Value, path, key string) (*Node, error) {
	return b.compare(before, after, path, key, 0)
}

func (b *Builder) compare(before, after models.Value, path, key string, depth int) (*Node, error) {
	if b.opts.MaxDepth > 0 && depth > b.opts.MaxDepth {
		return nil, errors.NewDiffError(
			fmt.Sprintf("nesting deeper than %d levels at %q", b.opts.MaxDepth, path),
			errors.ErrInputTooDeep,
		)
	}

	node := &Node{
		Key:    key,
		Path:   path,
		Type:   classify(before, after),
		Before: before,
		After:  after,
	}

	var err error
	switch {
	case before == nil && after == nil:
		return node, nil
	case isObject(before) && isObject(after):
		err = b.compareObjects(node, before.(*models.Object), after.(*models.Object), depth)
		settle(node)
	case isArray(before) && isArray(after):
		err = b.compareArrays(node, before.(models.Array), after.(models.Array), depth)
		settle(node)
	case after == nil:
		err = b.expand(node, before, depth)
	case before == nil:
		err = b.expand(node, after, depth)
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

func classify(before, after models.Value) ChangeType {
	switch {
	case before == nil && after == nil:
		return Unchanged
	case before == nil:
		return Added
	case after == nil:
		return Removed
	case models.Equal(before, after):
		return Unchanged
	default:
		return Changed
	}
}

// settle reclassifies a container present on both sides from its children.
func settle(node *Node) {
	node.Type = Unchanged
	for _, c := range node.Children {
		if c.Type != Unchanged {
			node.Type = Changed
			return
		}
	}
}

func (b *Builder) compareObjects(node *Node, before, after *models.Object, depth int) error {
	for _, k := range before.Keys() {
		v, _ := before.Get(k)
		w, _ := after.Get(k)
		if err := b.appendChild(node, v, w, JoinPath(node.Path, k), k, depth); err != nil {
			return err
		}
	}
	for _, k := range after.Keys() {
		if before.Has(k) {
			continue
		}
		w, _ := after.Get(k)
		if err := b.appendChild(node, nil, w, JoinPath(node.Path, k), k, depth); err != nil {
			return err
		}
	}
	return nil
}

// expand recurses into a value present on one side only. Every descendant
// inherits the node's Added or Removed classification.
func (b *Builder) expand(node *Node, present models.Value, depth int) error {
	side := func(v models.Value) (models.Value, models.Value) {
		if node.Type == Added {
			return nil, v
		}
		return v, nil
	}

	switch x := present.(type) {
	case *models.Object:
		for _, k := range x.Keys() {
			v, _ := x.Get(k)
			before, after := side(v)
			if err := b.appendChild(node, before, after, JoinPath(node.Path, k), k, depth); err != nil {
				return err
			}
		}
	case models.Array:
		for i, v := range x {
			before, after := side(v)
			if err := b.appendChild(node, before, after, IndexPath(node.Path, i), IndexPath(node.Key, i), depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) appendChild(node *Node, before, after models.Value, path, key string, depth int) error {
	if b.ignored(path) {
		return nil
	}
	child, err := b.compare(before, after, path, key, depth+1)
	if err != nil {
		return err
	}
	node.Children = append(node.Children, child)
	return nil
}

func (b *Builder) ignored(path string) bool {
	for _, re := range b.opts.Ignore {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func isObject(v models.Value) bool {
	_, ok := v.(*models.Object)
	return ok
}

func isArray(v models.Value) bool {
	_, ok := v.(models.Array)
	return ok
}
