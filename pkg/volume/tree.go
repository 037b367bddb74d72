package volume

import (
	"fmt"
	"regexp"
)

// Tree is an ordered, append-only collection of volumes with unique names.
// Names are indexed on Add and must not change afterwards; every other
// field, Mother included, is read live.
type Tree struct {
	volumes   []*Volume
	nameIndex map[string]int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{nameIndex: make(map[string]int)}
}

// Add appends v. A duplicate name is a ConfigurationError.
func (t *Tree) Add(v *Volume) error {
	if v == nil || v.Name == "" {
		return configErr("", "volume without a name")
	}
	if v.Kind == nil {
		return configErr(v.Name, "no shape kind")
	}
	if _, dup := t.nameIndex[v.Name]; dup {
		return configErr(v.Name, "duplicate volume name")
	}
	t.nameIndex[v.Name] = len(t.volumes)
	t.volumes = append(t.volumes, v)
	return nil
}

// Lookup returns the volume with the given name, or nil.
func (t *Tree) Lookup(name string) *Volume {
	i, ok := t.nameIndex[name]
	if !ok {
		return nil
	}
	return t.volumes[i]
}

// MustLookup returns the volume with the given name, or panics.
func (t *Tree) MustLookup(name string) *Volume {
	v := t.Lookup(name)
	if v == nil {
		panic(fmt.Sprintf("volume: no volume named %q", name))
	}
	return v
}

// Volumes returns all volumes in insertion order. The slice is shared.
func (t *Tree) Volumes() []*Volume {
	return t.volumes
}

// Len returns the number of volumes.
func (t *Tree) Len() int {
	return len(t.volumes)
}

// Children returns the volumes whose mother is name, in insertion order.
func (t *Tree) Children(name string) []*Volume {
	var out []*Volume
	for _, v := range t.volumes {
		if v.Mother == name {
			out = append(out, v)
		}
	}
	return out
}

// FindPattern returns volumes whose name matches re at its start.
func (t *Tree) FindPattern(re *regexp.Regexp) []*Volume {
	return t.match(re, func(v *Volume) string { return v.Name })
}

// ChildrenPattern returns volumes whose mother matches re at its start.
func (t *Tree) ChildrenPattern(re *regexp.Regexp) []*Volume {
	return t.match(re, func(v *Volume) string { return v.Mother })
}

func (t *Tree) match(re *regexp.Regexp, field func(*Volume) string) []*Volume {
	var out []*Volume
	for _, v := range t.volumes {
		if loc := re.FindStringIndex(field(v)); loc != nil && loc[0] == 0 {
			out = append(out, v)
		}
	}
	return out
}

// BySensitivity returns the volumes carrying the sensitivity tag.
func (t *Tree) BySensitivity(tag string) []*Volume {
	var out []*Volume
	for _, v := range t.volumes {
		if v.Sensitivity == tag {
			out = append(out, v)
		}
	}
	return out
}

// SensitivityTags returns the distinct sensitivity tags in use, in first
// appearance order, excluding "no".
func (t *Tree) SensitivityTags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range t.volumes {
		if v.Sensitivity == "" || v.Sensitivity == "no" || seen[v.Sensitivity] {
			continue
		}
		seen[v.Sensitivity] = true
		out = append(out, v.Sensitivity)
	}
	return out
}
