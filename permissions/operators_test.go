package permissions_test

import (
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/farmersheaven/backend/permissions"
)

var _ = Describe("operators", func() {
	var (
		and = permissions.And
		or  = permissions.Or
		not = permissions.Not
	)
	req := request(member, http.MethodGet, nil)
	target := owned{owner: "u-1"}

	It("treats an empty And as true", func() {
		for _, p := range []permissions.Principal{anonymous, member, admin} {
			r := request(p, http.MethodPost, nil)
			Expect(and().HasPermission(r)).To(BeTrue())
			Expect(and().HasObjectPermission(r, target)).To(BeTrue())
		}
	})

	It("treats an empty Or as false", func() {
		for _, p := range []permissions.Principal{anonymous, member, admin} {
			r := request(p, http.MethodGet, nil)
			Expect(or().HasPermission(r)).To(BeFalse())
			Expect(or().HasObjectPermission(r, target)).To(BeFalse())
		}
	})

	Context("short-circuit", func() {
		It("stops And at the first false child", func() {
			Expect(and(permissions.DenyAll, exploding).HasPermission(req)).To(BeFalse())
			Expect(and(permissions.DenyAll, exploding).HasObjectPermission(req, target)).To(BeFalse())
		})

		It("stops Or at the first true child", func() {
			Expect(or(permissions.AllowAny, exploding).HasPermission(req)).To(BeTrue())
			Expect(or(permissions.AllowAny, exploding).HasObjectPermission(req, target)).To(BeTrue())
		})

		It("evaluates children in listed order", func() {
			first, second := &spy{result: false}, &spy{result: true}
			Expect(or(first, second).HasPermission(req)).To(BeTrue())
			Expect(first.actionCalls).To(Equal(1))
			Expect(second.actionCalls).To(Equal(1))

			third := &spy{result: true}
			Expect(or(second, third).HasPermission(req)).To(BeTrue())
			Expect(third.actionCalls).To(BeZero())
		})
	})

	bools := map[bool]permissions.Component{true: permissions.AllowAny, false: permissions.DenyAll}

	DescribeTable("agrees with boolean and/or",
		func(a, b bool) {
			Expect(and(bools[a], bools[b]).HasPermission(req)).To(Equal(a && b))
			Expect(or(bools[a], bools[b]).HasPermission(req)).To(Equal(a || b))
			Expect(and(bools[a], bools[b]).HasObjectPermission(req, target)).To(Equal(a && b))
			Expect(or(bools[a], bools[b]).HasObjectPermission(req, target)).To(Equal(a || b))
		},
		Entry("true, true", true, true),
		Entry("true, false", true, false),
		Entry("false, true", false, true),
		Entry("false, false", false, false),
	)

	DescribeTable("negates every component",
		func(c permissions.Component, r *permissions.Request) {
			Expect(not(c).HasPermission(r)).To(Equal(!c.HasPermission(r)))
			Expect(not(c).HasObjectPermission(r, target)).To(Equal(!c.HasObjectPermission(r, target)))
		},
		Entry("AllowAny", permissions.AllowAny, req),
		Entry("DenyAll", permissions.DenyAll, req),
		Entry("IsAuthenticated anonymous", permissions.IsAuthenticated, request(anonymous, http.MethodGet, nil)),
		Entry("IsSuperUser member", permissions.IsSuperUser, req),
		Entry("IsObjectOwner", permissions.IsObjectOwner, req),
		Entry("AllOnlyGetPerm", permissions.AllOnlyGetPerm, req),
		Entry("nested", or(permissions.IsSuperUser, and(permissions.IsAuthenticated, permissions.AllowAnyPostPerm)), req),
	)

	It("composes nested expressions", func() {
		// IsSuperUser | IsAuthenticated & ~AllowAnyPostPerm
		expr := or(permissions.IsSuperUser, and(permissions.IsAuthenticated, not(permissions.AllowAnyPostPerm)))
		Expect(expr.HasPermission(request(member, http.MethodGet, nil))).To(BeTrue())
		Expect(expr.HasPermission(request(member, http.MethodPost, nil))).To(BeFalse())
		Expect(expr.HasPermission(request(admin, http.MethodPost, nil))).To(BeTrue())
		Expect(expr.HasPermission(request(anonymous, http.MethodGet, nil))).To(BeFalse())
	})

	It("treats nil children as no restriction", func() {
		Expect(and(nil, permissions.AllowAny).HasPermission(req)).To(BeTrue())
		Expect(or(nil).HasPermission(req)).To(BeTrue())
		Expect(not(nil).HasPermission(req)).To(BeFalse())
	})

	It("renders expressions", func() {
		expr := or(permissions.IsSuperUser, and(permissions.IsAuthenticated, not(permissions.HasMandatoryParam("q"))))
		Expect(permissions.Render(expr)).To(Equal(`IsSuperUser | (IsAuthenticated & ~HasMandatoryParam("q"))`))
		Expect(permissions.Render(nil)).To(Equal("And()"))
		Expect(permissions.Render(or())).To(Equal("Or()"))
	})
})
