package permissions

import (
	"sort"
)

// Rules maps action names to permission expressions. A nil expression
// places no restriction beyond the policy's global and enough slots.
type Rules map[string]Component

// Policy is the immutable permission table of one resource.
type Policy struct {
	name   string
	rules  Rules
	global Component
	enough Component
}

// Option configures a Policy at construction.
type Option func(*Policy)

// WithGlobal sets a component that is ANDed into every action.
func WithGlobal(c Component) Option {
	return func(p *Policy) {
		p.global = c
	}
}

// WithEnough sets a component that, when satisfied, grants every action.
func WithEnough(c Component) Option {
	return func(p *Policy) {
		p.enough = c
	}
}

// NewPolicy builds a policy for the named resource. The rules are copied.
func NewPolicy(name string, rules Rules, opts ...Option) *Policy {
	p := &Policy{
		name:  name,
		rules: make(Rules, len(rules)),
	}
	for action, expr := range rules {
		p.rules[action] = expr
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the resource name.
func (p *Policy) Name() string {
	return p.name
}

// Actions returns the declared actions in sorted order.
func (p *Policy) Actions() []string {
	actions := make([]string, 0, len(p.rules))
	for action := range p.rules {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// Declares reports whether the policy has an entry for action.
func (p *Policy) Declares(action string) bool {
	_, ok := p.rules[action]
	return ok
}

// Global returns the global component, or nil.
func (p *Policy) Global() Component {
	return p.global
}

// Enough returns the enough component, or nil.
func (p *Policy) Enough() Component {
	return p.enough
}

// Expression returns the composed expression evaluated for action.
func (p *Policy) Expression(action string) (Component, error) {
	expr, ok := p.rules[action]
	if !ok {
		return nil, &ConfigurationError{Resource: p.name, Action: action, Err: ErrUndeclaredAction}
	}
	if expr == nil {
		expr = And()
	}
	if p.global != nil {
		expr = And(p.global, expr)
	}
	if p.enough != nil {
		expr = Or(p.enough, expr)
	}
	return expr, nil
}

// Evaluate decides whether req may perform action. A nil target selects the
// action-level check, anything else the object-level check. A denial is a
// false result, not an error; only an undeclared action returns an error.
func (p *Policy) Evaluate(action string, req *Request, target any) (bool, error) {
	expr, err := p.Expression(action)
	if err != nil {
		return false, err
	}
	if target == nil {
		return expr.HasPermission(req), nil
	}
	return expr.HasObjectPermission(req, target), nil
}
