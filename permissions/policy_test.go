package permissions_test

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/farmersheaven/backend/permissions"
)

var _ = Describe("policy", func() {
	req := request(member, http.MethodGet, nil)

	It("reports an undeclared action as a configuration error", func() {
		policy := permissions.NewPolicy("things", permissions.Rules{"list": permissions.AllowAny})
		allowed, err := policy.Evaluate("destroy", req, nil)
		Expect(allowed).To(BeFalse())
		Expect(err).To(HaveOccurred())
		Expect(permissions.IsConfigurationError(err)).To(BeTrue())
		Expect(errors.Is(err, permissions.ErrUndeclaredAction)).To(BeTrue())

		var cfgErr *permissions.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Resource).To(Equal("things"))
		Expect(cfgErr.Action).To(Equal("destroy"))
	})

	It("places no restriction on a nil expression", func() {
		policy := permissions.NewPolicy("things", permissions.Rules{"list": nil})
		allowed, err := policy.Evaluate("list", request(anonymous, http.MethodPost, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeTrue())
	})

	It("lets enough bypass the base expression", func() {
		policy := permissions.NewPolicy("things",
			permissions.Rules{"list": permissions.DenyAll},
			permissions.WithEnough(permissions.AllowAny))
		allowed, err := policy.Evaluate("list", req, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeTrue())
	})

	It("lets enough bypass a failing global gate", func() {
		policy := permissions.NewPolicy("things",
			permissions.Rules{"list": permissions.AllowAny},
			permissions.WithGlobal(permissions.DenyAll),
			permissions.WithEnough(permissions.IsSuperUser))
		allowed, err := policy.Evaluate("list", request(admin, http.MethodGet, nil), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeTrue())

		allowed, err = policy.Evaluate("list", req, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeFalse())
	})

	It("gates every action with global", func() {
		policy := permissions.NewPolicy("things",
			permissions.Rules{"list": permissions.AllowAny, "create": nil},
			permissions.WithGlobal(permissions.DenyAll))
		for _, action := range []string{"list", "create"} {
			allowed, err := policy.Evaluate(action, request(admin, http.MethodGet, nil), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		}
	})

	It("combines global with a nil expression", func() {
		policy := permissions.NewPolicy("things",
			permissions.Rules{"list": nil},
			permissions.WithGlobal(permissions.IsAuthenticated))
		allowed, _ := policy.Evaluate("list", request(anonymous, http.MethodGet, nil), nil)
		Expect(allowed).To(BeFalse())
		allowed, _ = policy.Evaluate("list", req, nil)
		Expect(allowed).To(BeTrue())
	})

	Context("dispatch", func() {
		It("uses the action level without a target", func() {
			s := &spy{result: true}
			policy := permissions.NewPolicy("things", permissions.Rules{"retrieve": s})
			_, err := policy.Evaluate("retrieve", req, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.actionCalls).To(Equal(1))
			Expect(s.objectCalls).To(BeZero())
		})

		It("uses the object level with a target", func() {
			s := &spy{result: true}
			policy := permissions.NewPolicy("things", permissions.Rules{"retrieve": s})
			_, err := policy.Evaluate("retrieve", req, owned{owner: "u-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.actionCalls).To(BeZero())
			Expect(s.objectCalls).To(Equal(1))
		})

		It("checks ownership only when an object is given", func() {
			policy := permissions.NewPolicy("things", permissions.Rules{"update": permissions.IsObjectOwner})
			allowed, _ := policy.Evaluate("update", req, nil)
			Expect(allowed).To(BeFalse())
			allowed, _ = policy.Evaluate("update", req, owned{owner: "u-1"})
			Expect(allowed).To(BeTrue())
		})
	})

	Context("end to end", func() {
		It("gates retrieve on superusers", func() {
			policy := permissions.NewPolicy("things", permissions.Rules{"retrieve": permissions.IsSuperUser})
			obj := owned{owner: "u-9"}

			allowed, err := policy.Evaluate("retrieve", request(anonymous, http.MethodGet, nil), obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())

			allowed, err = policy.Evaluate("retrieve", request(admin, http.MethodGet, nil), obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("lets authenticated members list with GET only", func() {
			policy := permissions.NewPolicy("things", permissions.Rules{
				"list": permissions.Or(permissions.IsSuperUser, permissions.AllOnlyGetPerm),
			})

			allowed, err := policy.Evaluate("list", request(member, http.MethodGet, nil), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())

			allowed, err = policy.Evaluate("list", request(member, http.MethodPost, nil), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	It("is not affected by later changes to its rules", func() {
		rules := permissions.Rules{"list": permissions.AllowAny}
		policy := permissions.NewPolicy("things", rules)
		rules["list"] = permissions.DenyAll
		rules["destroy"] = permissions.AllowAny

		allowed, err := policy.Evaluate("list", req, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(BeTrue())
		Expect(policy.Declares("destroy")).To(BeFalse())
		Expect(policy.Actions()).To(Equal([]string{"list"}))
	})

	Context("registry", func() {
		It("rejects duplicate resources", func() {
			_, err := permissions.NewRegistry(
				permissions.NewPolicy("things", nil),
				permissions.NewPolicy("things", nil),
			)
			Expect(err).To(HaveOccurred())
		})

		It("reports unknown resources as configuration errors", func() {
			reg, err := permissions.NewRegistry(permissions.NewPolicy("things", permissions.Rules{"list": nil}))
			Expect(err).NotTo(HaveOccurred())

			_, err = reg.Evaluate("widgets", "list", req, nil)
			Expect(errors.Is(err, permissions.ErrUnknownResource)).To(BeTrue())
			Expect(permissions.IsConfigurationError(err)).To(BeTrue())

			allowed, err := reg.Evaluate("things", "list", req, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
			Expect(reg.Names()).To(Equal([]string{"things"}))
		})
	})
})
