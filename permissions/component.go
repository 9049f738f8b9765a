// Package permissions evaluates whether a principal may perform a named
// action on a resource, optionally against a specific object.
//
// Rules are built from small boolean components combined with And, Or and
// Not, and grouped per resource into an immutable Policy.
package permissions

import (
	"net/http"
	"net/url"
)

// Principal is the acting identity of a request.
type Principal struct {
	ID            string
	Authenticated bool
	SuperUser     bool
}

// Anonymous returns an unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// Request carries the request-scoped inputs a component may inspect.
type Request struct {
	Principal Principal
	Method    string
	Query     url.Values
}

// NewRequest builds a Request from an inbound HTTP request.
func NewRequest(r *http.Request, principal Principal) *Request {
	req := &Request{Principal: principal}
	if r == nil {
		return req
	}
	req.Method = r.Method
	if r.URL != nil {
		req.Query = r.URL.Query()
	}
	return req
}

// Component is a permission predicate evaluable at action and object level.
// Implementations must be immutable after construction.
type Component interface {
	// HasPermission is the action-level check, used when no target exists.
	HasPermission(req *Request) bool
	// HasObjectPermission is the object-level check.
	HasObjectPermission(req *Request, target any) bool
}

// Owned is implemented by objects that belong to a principal.
type Owned interface {
	OwnerID() string
}

// Identified is implemented by objects that represent a principal.
type Identified interface {
	PrincipalID() string
}

// Predicate adapts a function to a Component whose object-level check
// collapses to the action-level check.
type Predicate func(req *Request) bool

// HasPermission implements Component.
func (p Predicate) HasPermission(req *Request) bool {
	if req == nil {
		return false
	}
	return p(req)
}

// HasObjectPermission implements Component.
func (p Predicate) HasObjectPermission(req *Request, _ any) bool {
	return p.HasPermission(req)
}

// rule is a named leaf. A nil object check delegates to the action check.
type rule struct {
	name   string
	action func(req *Request) bool
	object func(req *Request, target any) bool
}

func (r *rule) HasPermission(req *Request) bool {
	if req == nil {
		return false
	}
	return r.action(req)
}

func (r *rule) HasObjectPermission(req *Request, target any) bool {
	if req == nil {
		return false
	}
	if r.object == nil {
		return r.action(req)
	}
	return r.object(req, target)
}

func (r *rule) String() string {
	return r.name
}
