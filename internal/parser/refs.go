package parser

import (
	"strconv"
	"strings"

	"github.com/mcncl/treediff/internal/log"
	"github.com/mcncl/treediff/internal/models"
)

const (
	refKey      = "$ref"
	circularKey = "circular"
	localPrefix = "#/"
)

// ResolveRefs returns a copy of root in which every object holding a local
// "$ref" string ("#/components/schemas/User") is replaced by the value the
// pointer designates, resolved recursively. A reference met again while it is
// still being expanded becomes {"$ref": <ref>, "circular": true}. External
// and unresolvable references are kept as written.
func ResolveRefs(root models.Value) models.Value {
	r := &resolver{root: root, active: make(map[string]bool)}
	return r.resolve(root)
}

type resolver struct {
	root models.Value
	// active holds the references on the current expansion path.
	active map[string]bool
}

func (r *resolver) resolve(v models.Value) models.Value {
	switch x := v.(type) {
	case models.Array:
		out := make(models.Array, len(x))
		for i, item := range x {
			out[i] = r.resolve(item)
		}
		return out
	case *models.Object:
		if ref, ok := refOf(x); ok {
			return r.follow(x, ref)
		}
		out := models.NewObject(x.Len())
		for _, k := range x.Keys() {
			child, _ := x.Get(k)
			out.Set(k, r.resolve(child))
		}
		return out
	default:
		return v
	}
}

func (r *resolver) follow(obj *models.Object, ref string) models.Value {
	if !strings.HasPrefix(ref, localPrefix) && ref != "#" {
		log.Tracef("leaving external reference %s", ref)
		return obj
	}
	if r.active[ref] {
		circular := models.NewObject(2)
		circular.Set(refKey, models.String(ref))
		circular.Set(circularKey, models.Bool(true))
		return circular
	}

	target, ok := Pointer(r.root, strings.TrimPrefix(ref, "#"))
	if !ok {
		log.Debugf("reference %s does not resolve", ref)
		return obj
	}

	r.active[ref] = true
	defer delete(r.active, ref)
	return r.resolve(target)
}

func refOf(obj *models.Object) (string, bool) {
	v, ok := obj.Get(refKey)
	if !ok {
		return "", false
	}
	s, ok := v.(models.String)
	return string(s), ok
}

// Pointer looks up a JSON pointer ("/a/b/0") in root. "~1" and "~0" in a
// token stand for "/" and "~". The empty pointer designates root itself.
func Pointer(root models.Value, pointer string) (models.Value, bool) {
	if pointer == "" {
		return root, root != nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, false
	}

	current := root
	for _, token := range strings.Split(pointer[1:], "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		switch x := current.(type) {
		case *models.Object:
			next, ok := x.Get(token)
			if !ok {
				return nil, false
			}
			current = next
		case models.Array:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(x) {
				return nil, false
			}
			current = x[i]
		default:
			return nil, false
		}
	}
	return current, true
}
