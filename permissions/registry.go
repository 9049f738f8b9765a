package permissions

import (
	"fmt"
	"sort"
)

// Registry holds the policies of every resource. It is built once and is
// read-only afterwards.
type Registry struct {
	policies map[string]*Policy
}

// NewRegistry indexes policies by name. Duplicate names are rejected.
func NewRegistry(policies ...*Policy) (*Registry, error) {
	r := &Registry{policies: make(map[string]*Policy, len(policies))}
	for _, p := range policies {
		if p == nil {
			continue
		}
		if _, exists := r.policies[p.Name()]; exists {
			return nil, fmt.Errorf("duplicate policy for resource %q", p.Name())
		}
		r.policies[p.Name()] = p
	}
	return r, nil
}

// Lookup returns the policy of resource.
func (r *Registry) Lookup(resource string) (*Policy, error) {
	p, ok := r.policies[resource]
	if !ok {
		return nil, &ConfigurationError{Resource: resource, Err: ErrUnknownResource}
	}
	return p, nil
}

// Evaluate resolves resource and evaluates action against it.
func (r *Registry) Evaluate(resource, action string, req *Request, target any) (bool, error) {
	p, err := r.Lookup(resource)
	if err != nil {
		return false, err
	}
	return p.Evaluate(action, req, target)
}

// Names returns the registered resource names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
