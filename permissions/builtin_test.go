package permissions_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/farmersheaven/backend/permissions"
)

var _ = Describe("built-in components", func() {
	DescribeTable("action level",
		func(c permissions.Component, r *permissions.Request, expected bool) {
			Expect(c.HasPermission(r)).To(Equal(expected))
		},
		Entry("AllowAny anonymous", permissions.AllowAny, request(anonymous, http.MethodDelete, nil), true),
		Entry("DenyAll superuser", permissions.DenyAll, request(admin, http.MethodGet, nil), false),
		Entry("IsAuthenticated anonymous", permissions.IsAuthenticated, request(anonymous, http.MethodGet, nil), false),
		Entry("IsAuthenticated member", permissions.IsAuthenticated, request(member, http.MethodGet, nil), true),
		Entry("IsSuperUser member", permissions.IsSuperUser, request(member, http.MethodGet, nil), false),
		Entry("IsSuperUser admin", permissions.IsSuperUser, request(admin, http.MethodGet, nil), true),
		Entry("IsSuperUser unauthenticated flag", permissions.IsSuperUser,
			request(permissions.Principal{SuperUser: true}, http.MethodGet, nil), false),
		Entry("IsObjectOwner without object", permissions.IsObjectOwner, request(member, http.MethodGet, nil), false),
		Entry("IsTheSameUser member", permissions.IsTheSameUser, request(member, http.MethodGet, nil), true),
		Entry("IsTheSameUser anonymous", permissions.IsTheSameUser, request(anonymous, http.MethodGet, nil), false),
		Entry("AllowAnyGetPerm GET", permissions.AllowAnyGetPerm, request(anonymous, http.MethodGet, nil), true),
		Entry("AllowAnyGetPerm POST", permissions.AllowAnyGetPerm, request(anonymous, http.MethodPost, nil), false),
		Entry("AllowAnyPostPerm POST", permissions.AllowAnyPostPerm, request(anonymous, http.MethodPost, nil), true),
		Entry("AllOnlyGetPerm anonymous GET", permissions.AllOnlyGetPerm, request(anonymous, http.MethodGet, nil), false),
		Entry("AllOnlyGetPerm member GET", permissions.AllOnlyGetPerm, request(member, http.MethodGet, nil), true),
		Entry("AllOnlyGetPerm member PUT", permissions.AllOnlyGetPerm, request(member, http.MethodPut, nil), false),
		Entry("MethodIs lower case", permissions.MethodIs("put"), request(anonymous, http.MethodPut, nil), true),
		Entry("AuthenticatedMethod member", permissions.AuthenticatedMethod(http.MethodPatch), request(member, http.MethodPatch, nil), true),
	)

	DescribeTable("HasMandatoryParam",
		func(query url.Values, expected bool) {
			r := request(anonymous, http.MethodGet, query)
			Expect(permissions.HasMandatoryParam("path").HasPermission(r)).To(Equal(expected))
			Expect(permissions.HasMandatoryParam("path").HasObjectPermission(r, owned{})).To(Equal(expected))
		},
		Entry("present", url.Values{"path": {"a/b.png"}}, true),
		Entry("empty value", url.Values{"path": {""}}, false),
		Entry("other parameter", url.Values{"name": {"x"}}, false),
		Entry("no query", nil, false),
	)

	It("denies a nil request", func() {
		for _, c := range []permissions.Component{
			permissions.AllowAny,
			permissions.IsAuthenticated,
			permissions.HasMandatoryParam("path"),
			permissions.AllOnlyGetPerm,
			permissions.IsObjectOwner,
		} {
			Expect(c.HasPermission(nil)).To(BeFalse())
			Expect(c.HasObjectPermission(nil, owned{owner: "u-1"})).To(BeFalse())
		}
	})

	Context("object level", func() {
		It("grants the owner only", func() {
			Expect(permissions.IsObjectOwner.HasObjectPermission(request(member, http.MethodGet, nil), owned{owner: "u-1"})).To(BeTrue())
			Expect(permissions.IsObjectOwner.HasObjectPermission(request(admin, http.MethodGet, nil), owned{owner: "u-1"})).To(BeFalse())
			Expect(permissions.IsObjectOwner.HasObjectPermission(request(anonymous, http.MethodGet, nil), owned{owner: ""})).To(BeFalse())
		})

		It("denies targets without ownership", func() {
			Expect(permissions.IsObjectOwner.HasObjectPermission(request(member, http.MethodGet, nil), "plain")).To(BeFalse())
			Expect(permissions.IsObjectOwner.HasObjectPermission(request(member, http.MethodGet, nil), nil)).To(BeFalse())
		})

		It("matches the same user", func() {
			Expect(permissions.IsTheSameUser.HasObjectPermission(request(member, http.MethodGet, nil), account{id: "u-1"})).To(BeTrue())
			Expect(permissions.IsTheSameUser.HasObjectPermission(request(member, http.MethodGet, nil), account{id: "u-2"})).To(BeFalse())
			Expect(permissions.IsTheSameUser.HasObjectPermission(request(member, http.MethodGet, nil), owned{owner: "u-1"})).To(BeFalse())
		})

		It("agrees with the action level when the object is ignored", func() {
			for _, c := range []permissions.Component{
				permissions.AllowAny,
				permissions.DenyAll,
				permissions.IsAuthenticated,
				permissions.IsSuperUser,
				permissions.AllowAnyGetPerm,
				permissions.AllOnlyGetPerm,
			} {
				for _, p := range []permissions.Principal{anonymous, member, admin} {
					r := request(p, http.MethodGet, nil)
					Expect(c.HasObjectPermission(r, owned{owner: "x"})).To(Equal(c.HasPermission(r)))
				}
			}
		})
	})

	It("builds requests from HTTP requests", func() {
		httpReq := httptest.NewRequest(http.MethodGet, "/api/v1/documents/download?path=a.png", nil)
		r := permissions.NewRequest(httpReq, member)
		Expect(r.Method).To(Equal(http.MethodGet))
		Expect(r.Query.Get("path")).To(Equal("a.png"))
		Expect(r.Principal).To(Equal(member))
		Expect(permissions.NewRequest(nil, anonymous).Method).To(BeEmpty())
	})

	It("adapts plain predicates", func() {
		weekdays := permissions.Predicate(func(r *permissions.Request) bool { return r.Query.Get("day") != "sunday" })
		Expect(weekdays.HasPermission(request(anonymous, http.MethodGet, url.Values{"day": {"monday"}}))).To(BeTrue())
		Expect(weekdays.HasObjectPermission(request(anonymous, http.MethodGet, url.Values{"day": {"sunday"}}), owned{})).To(BeFalse())
		Expect(weekdays.HasPermission(nil)).To(BeFalse())
	})
})
