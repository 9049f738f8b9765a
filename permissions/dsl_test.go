package permissions_test

import (
	"net/http"
	"net/url"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/farmersheaven/backend/permissions"
)

var _ = Describe("expression language", func() {
	var catalog *permissions.Catalog

	BeforeEach(func() {
		catalog = permissions.NewCatalog()
	})

	DescribeTable("evaluates like the equivalent combinators",
		func(src string, r *permissions.Request, expected bool) {
			comp, err := catalog.Parse(src)
			Expect(err).NotTo(HaveOccurred())
			Expect(comp.HasPermission(r)).To(Equal(expected))
		},
		Entry("single leaf", "IsSuperUser", request(admin, http.MethodGet, nil), true),
		Entry("or", "IsSuperUser | AllOnlyGetPerm", request(member, http.MethodGet, nil), true),
		Entry("or with POST", "IsSuperUser | AllOnlyGetPerm", request(member, http.MethodPost, nil), false),
		// AllowAny | DenyAll & DenyAll parses as AllowAny | (DenyAll & DenyAll)
		Entry("and binds tighter than or", "AllowAny | DenyAll & DenyAll", request(anonymous, http.MethodGet, nil), true),
		Entry("parentheses override precedence", "(AllowAny | DenyAll) & DenyAll", request(anonymous, http.MethodGet, nil), false),
		// ~AllowAny & DenyAll parses as (~AllowAny) & DenyAll
		Entry("not binds tighter than and", "~DenyAll & AllowAny", request(anonymous, http.MethodGet, nil), true),
		Entry("double negation", "~~IsAuthenticated", request(member, http.MethodGet, nil), true),
		Entry("parameterised", `HasMandatoryParam("path")`, request(anonymous, http.MethodGet, url.Values{"path": {"x"}}), true),
		Entry("method", `MethodIs("DELETE") & IsSuperUser`, request(admin, http.MethodDelete, nil), true),
		Entry("empty and", "And()", request(anonymous, http.MethodGet, nil), true),
		Entry("empty or", "Or", request(admin, http.MethodGet, nil), false),
		Entry("call with empty parens", "IsAuthenticated()", request(member, http.MethodGet, nil), true),
	)

	DescribeTable("rejects malformed expressions",
		func(src string) {
			_, err := catalog.Parse(src)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("unknown component", "IsWizard"),
		Entry("dangling operator", "IsSuperUser |"),
		Entry("unbalanced parentheses", "(IsSuperUser"),
		Entry("missing argument", "HasMandatoryParam"),
		Entry("unexpected argument", `IsSuperUser("x")`),
		Entry("unquoted argument", "HasMandatoryParam(path)"),
	)

	It("round-trips rendered expressions", func() {
		expr := permissions.Or(
			permissions.IsSuperUser,
			permissions.And(permissions.AllOnlyGetPerm, permissions.Not(permissions.HasMandatoryParam("draft"))),
		)
		parsed, err := catalog.Parse(permissions.Render(expr))
		Expect(err).NotTo(HaveOccurred())
		Expect(permissions.Render(parsed)).To(Equal(permissions.Render(expr)))
	})

	It("accepts custom components", func() {
		Expect(catalog.Register("IsBetaTester", func(args ...string) (permissions.Component, error) {
			return permissions.HasMandatoryParam("beta"), nil
		})).To(Succeed())
		Expect(catalog.Register("IsBetaTester", nil)).NotTo(Succeed())

		comp := catalog.MustParse("IsBetaTester | IsSuperUser")
		Expect(comp.HasPermission(request(member, http.MethodGet, url.Values{"beta": {"1"}}))).To(BeTrue())
		Expect(catalog.Names()).To(ContainElement("IsBetaTester"))
	})

	It("panics on MustParse errors", func() {
		Expect(func() { catalog.MustParse("IsSuperUser &") }).To(Panic())
	})
})
