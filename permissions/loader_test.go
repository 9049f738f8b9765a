package permissions_test

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/farmersheaven/backend/permissions"
)

const samplePolicies = `
policies:
  settings:
    enough: IsSuperUser
    actions:
      list: IsAuthenticated | AllOnlyGetPerm
      create: DenyAll
      metadata: null
  reports:
    global: IsAuthenticated
    actions:
      list: null
`

var _ = Describe("policy file", func() {
	catalog := permissions.NewCatalog()

	It("loads policies with enough, global and null actions", func() {
		reg, err := permissions.LoadPolicies(strings.NewReader(samplePolicies), catalog)
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.Names()).To(Equal([]string{"reports", "settings"}))

		allowed, err := reg.Evaluate("settings", "create", request(admin, http.MethodPost, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeTrue())

		allowed, err = reg.Evaluate("settings", "create", request(member, http.MethodPost, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeFalse())

		allowed, err = reg.Evaluate("settings", "metadata", request(anonymous, http.MethodGet, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeTrue())

		allowed, err = reg.Evaluate("reports", "list", request(anonymous, http.MethodGet, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeFalse())

		_, err = reg.Evaluate("reports", "destroy", request(admin, http.MethodDelete, nil), nil)
		Expect(permissions.IsConfigurationError(err)).To(BeTrue())
	})

	It("rejects invalid expressions", func() {
		_, err := permissions.LoadPolicies(strings.NewReader(`
policies:
  settings:
    actions:
      list: IsSuperUser ||
`), catalog)
		Expect(err).To(MatchError(ContainSubstring(`policy "settings" action "list"`)))
	})

	It("rejects unknown keys", func() {
		_, err := permissions.LoadPolicies(strings.NewReader(`
policies:
  settings:
    rules:
      list: AllowAny
`), catalog)
		Expect(err).To(HaveOccurred())
	})

	It("rejects empty files and policies", func() {
		_, err := permissions.LoadPolicies(strings.NewReader("policies: {}\n"), catalog)
		Expect(err).To(HaveOccurred())

		_, err = permissions.LoadPolicies(strings.NewReader("policies:\n  settings:\n    enough: AllowAny\n"), catalog)
		Expect(err).To(MatchError(ContainSubstring("declares no actions")))
	})

	It("reads policy files from disk", func() {
		dir, err := os.MkdirTemp("", "policies")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "policies.yaml")
		Expect(os.WriteFile(path, []byte(samplePolicies), 0o600)).To(Succeed())

		reg, err := permissions.LoadPolicyFile(path, catalog)
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.Names()).To(HaveLen(2))

		_, err = permissions.LoadPolicyFile(filepath.Join(dir, "missing.yaml"), catalog)
		Expect(err).To(HaveOccurred())
	})

	It("dumps a registry that loads back to the same decisions", func() {
		var buf bytes.Buffer
		Expect(permissions.Dump(&buf, permissions.DefaultRegistry())).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("IsSuperUser | IsAuthenticated | AllOnlyGetPerm"))

		reg, err := permissions.LoadPolicies(&buf, catalog)
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.Names()).To(Equal(permissions.DefaultRegistry().Names()))

		for _, p := range []permissions.Principal{anonymous, member, admin} {
			for _, method := range []string{http.MethodGet, http.MethodPost} {
				r := request(p, method, nil)
				for _, resource := range reg.Names() {
					want, _ := permissions.DefaultRegistry().Lookup(resource)
					for _, action := range want.Actions() {
						expected, err := want.Evaluate(action, r, nil)
						Expect(err).NotTo(HaveOccurred())
						got, err := reg.Evaluate(resource, action, r, nil)
						Expect(err).NotTo(HaveOccurred())
						Expect(got).To(Equal(expected), "%s.%s for %+v %s", resource, action, p, method)
					}
				}
			}
		}
	})

	It("refuses to dump components without an expression form", func() {
		reads := permissions.Predicate(func(r *permissions.Request) bool { return r.Method == http.MethodGet })
		reg, err := permissions.NewRegistry(permissions.NewPolicy("reports", permissions.Rules{
			"list": permissions.Or(permissions.IsSuperUser, permissions.Not(reads)),
		}))
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		err = permissions.Dump(&buf, reg)
		Expect(errors.Is(err, permissions.ErrNotRenderable)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(`"reports" list`))
		Expect(buf.Len()).To(BeZero())
	})

	It("accepts trees built from named components", func() {
		expr := permissions.And(permissions.IsAuthenticated, permissions.Not(permissions.IsSuperUser))
		Expect(permissions.CheckRenderable(expr)).To(Succeed())
		Expect(permissions.CheckRenderable(nil)).To(Succeed())
	})
})
