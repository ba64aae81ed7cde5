package domain

import (
	"fmt"
	"strings"
)

// Value is an immutable piece of data carried by the task graph.
// The set of implementations is closed: String, List and Artifact.
type Value interface {
	fmt.Stringer
	isValue()
}

// String is a plain text value.
type String string

// List is an ordered sequence of values.
type List []Value

// Artifact is a Maven-style artifact coordinate.
type Artifact struct {
	Group      string
	Name       string
	Version    string
	Classifier string
	Extension  string
}

func (String) isValue()   {}
func (List) isValue()     {}
func (Artifact) isValue() {}

func (s String) String() string { return string(s) }

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// String renders the coordinate in group:name:version[:classifier][@ext] form.
func (a Artifact) String() string {
	s := a.Group + ":" + a.Name + ":" + a.Version
	if a.Classifier != "" {
		s += ":" + a.Classifier
	}
	if a.Extension != "" && a.Extension != "jar" {
		s += "@" + a.Extension
	}
	return s
}

// ParseArtifact parses group:name:version[:classifier][@extension].
func ParseArtifact(coordinate string) (Artifact, error) {
	var a Artifact
	rest := coordinate
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		a.Extension = rest[i+1:]
		rest = rest[:i]
		if a.Extension == "" {
			return Artifact{}, fmt.Errorf("invalid artifact coordinate %q: empty extension", coordinate)
		}
	}
	parts := strings.Split(rest, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Artifact{}, fmt.Errorf("invalid artifact coordinate %q", coordinate)
	}
	for _, p := range parts {
		if p == "" {
			return Artifact{}, fmt.Errorf("invalid artifact coordinate %q: empty segment", coordinate)
		}
	}
	a.Group, a.Name, a.Version = parts[0], parts[1], parts[2]
	if len(parts) == 4 {
		a.Classifier = parts[3]
	}
	return a, nil
}

// EqualValues reports whether a and b are structurally equal.
func EqualValues(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Artifact:
		bv, ok := b.(Artifact)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	return false
}
