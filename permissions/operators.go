package permissions

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotRenderable is returned when a component has no expression form,
// such as a Predicate.
var ErrNotRenderable = errors.New("component has no expression form")

// And is satisfied when every child is. Children are evaluated in order and
// evaluation stops at the first false. An empty And is true.
func And(children ...Component) Component {
	return &and{children: normalize(children)}
}

// Or is satisfied when any child is. Children are evaluated in order and
// evaluation stops at the first true. An empty Or is false.
func Or(children ...Component) Component {
	return &or{children: normalize(children)}
}

// Not negates c at both levels.
func Not(c Component) Component {
	if c == nil {
		c = And()
	}
	return &not{child: c}
}

// normalize copies children and replaces nil entries with an empty And.
func normalize(children []Component) []Component {
	out := make([]Component, len(children))
	for i, c := range children {
		if c == nil {
			c = &and{}
		}
		out[i] = c
	}
	return out
}

type and struct {
	children []Component
}

func (a *and) HasPermission(req *Request) bool {
	for _, c := range a.children {
		if !c.HasPermission(req) {
			return false
		}
	}
	return true
}

func (a *and) HasObjectPermission(req *Request, target any) bool {
	for _, c := range a.children {
		if !c.HasObjectPermission(req, target) {
			return false
		}
	}
	return true
}

func (a *and) String() string {
	return join(a.children, " & ", "And()")
}

type or struct {
	children []Component
}

func (o *or) HasPermission(req *Request) bool {
	for _, c := range o.children {
		if c.HasPermission(req) {
			return true
		}
	}
	return false
}

func (o *or) HasObjectPermission(req *Request, target any) bool {
	for _, c := range o.children {
		if c.HasObjectPermission(req, target) {
			return true
		}
	}
	return false
}

func (o *or) String() string {
	return join(o.children, " | ", "Or()")
}

type not struct {
	child Component
}

func (n *not) HasPermission(req *Request) bool {
	return !n.child.HasPermission(req)
}

func (n *not) HasObjectPermission(req *Request, target any) bool {
	return !n.child.HasObjectPermission(req, target)
}

func (n *not) String() string {
	return "~" + group(n.child)
}

// Render renders c in expression syntax. Components without an expression
// form render as their Go type; use CheckRenderable before persisting.
func Render(c Component) string {
	if c == nil {
		return "And()"
	}
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}

// CheckRenderable reports whether every component in c's tree has an
// expression form that a Catalog can parse back.
func CheckRenderable(c Component) error {
	switch v := c.(type) {
	case nil, *rule:
		return nil
	case *and:
		return checkAll(v.children)
	case *or:
		return checkAll(v.children)
	case *not:
		return CheckRenderable(v.child)
	case fmt.Stringer:
		return nil
	}
	return fmt.Errorf("%w: %T", ErrNotRenderable, c)
}

func checkAll(children []Component) error {
	for _, c := range children {
		if err := CheckRenderable(c); err != nil {
			return err
		}
	}
	return nil
}

// group wraps composite children in parentheses.
func group(c Component) string {
	switch c.(type) {
	case *and, *or:
		return "(" + Render(c) + ")"
	}
	return Render(c)
}

func join(children []Component, sep, empty string) string {
	if len(children) == 0 {
		return empty
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = group(c)
	}
	return strings.Join(parts, sep)
}
