package permissions_test

import (
	"net/url"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/farmersheaven/backend/permissions"
)

func TestPermissions(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "permissions suit")
}

var (
	anonymous = permissions.Principal{}
	member    = permissions.Principal{ID: "u-1", Authenticated: true}
	admin     = permissions.Principal{ID: "u-2", Authenticated: true, SuperUser: true}
)

func request(p permissions.Principal, method string, query url.Values) *permissions.Request {
	return &permissions.Request{Principal: p, Method: method, Query: query}
}

// exploding fails the test if it is ever evaluated.
var exploding = permissions.Predicate(func(*permissions.Request) bool {
	Fail("component evaluated after short-circuit")
	return false
})

type owned struct{ owner string }

func (o owned) OwnerID() string { return o.owner }

type account struct{ id string }

func (a account) PrincipalID() string { return a.id }

// spy records which level it was evaluated at.
type spy struct {
	actionCalls int
	objectCalls int
	result      bool
}

func (s *spy) HasPermission(*permissions.Request) bool {
	s.actionCalls++
	return s.result
}

func (s *spy) HasObjectPermission(*permissions.Request, any) bool {
	s.objectCalls++
	return s.result
}
