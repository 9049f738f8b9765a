package permissions_test

import (
	"net/http"
	"net/url"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/farmersheaven/backend/permissions"
)

var _ = Describe("resource policies", func() {
	registry := permissions.DefaultRegistry()

	DescribeTable("decisions",
		func(resource, action string, r *permissions.Request, expected bool) {
			allowed, err := registry.Evaluate(resource, action, r, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(Equal(expected))
		},
		Entry("anyone may log in", permissions.ResourceUsers, "login", request(anonymous, http.MethodPost, nil), true),
		Entry("anyone may request an otp", permissions.ResourceUsers, "send_otp", request(anonymous, http.MethodPost, nil), true),
		Entry("members may not list users", permissions.ResourceUsers, permissions.ActionList, request(member, http.MethodGet, nil), false),
		Entry("superusers list users", permissions.ResourceUsers, permissions.ActionList, request(admin, http.MethodGet, nil), true),
		Entry("members read their profile", permissions.ResourceUsers, "me", request(member, http.MethodGet, nil), true),
		Entry("anonymous has no profile", permissions.ResourceUsers, "me", request(anonymous, http.MethodGet, nil), false),

		Entry("anonymous lists countries", permissions.ResourceSettings, "country", request(anonymous, http.MethodGet, nil), true),
		Entry("anonymous cannot post countries", permissions.ResourceSettings, "country", request(anonymous, http.MethodPost, nil), false),
		Entry("anonymous lists products", permissions.ResourceSettings, "products", request(anonymous, http.MethodGet, nil), true),
		Entry("members create nothing", permissions.ResourceSettings, permissions.ActionCreate, request(member, http.MethodPost, nil), false),
		Entry("superusers create", permissions.ResourceSettings, permissions.ActionCreate, request(admin, http.MethodPost, nil), true),
		Entry("members use dropdowns", permissions.ResourceSettings, "dropdown", request(member, http.MethodGet, nil), true),
		Entry("anonymous has no dropdowns", permissions.ResourceSettings, "dropdown", request(anonymous, http.MethodGet, nil), false),
		Entry("members retrieve settings", permissions.ResourceSettings, permissions.ActionRetrieve, request(member, http.MethodGet, nil), true),

		Entry("anyone uploads", permissions.ResourceDocuments, "create_with_base64", request(anonymous, http.MethodPost, nil), true),
		Entry("members cannot delete documents", permissions.ResourceDocuments, permissions.ActionDestroy, request(member, http.MethodDelete, nil), false),
		Entry("download needs a path", permissions.ResourceDocuments, "download_file", request(anonymous, http.MethodGet, nil), false),
		Entry("download with a path", permissions.ResourceDocuments, "download_file",
			request(anonymous, http.MethodGet, url.Values{"path": {"uploads/x.png"}}), true),

		Entry("members cannot read activity", permissions.ResourceActivityLogs, permissions.ActionList, request(member, http.MethodGet, nil), false),
		Entry("superusers read activity", permissions.ResourceActivityLogs, permissions.ActionList, request(admin, http.MethodGet, nil), true),
	)

	It("declares the standard actions for every resource", func() {
		for _, name := range registry.Names() {
			policy, err := registry.Lookup(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(policy.Declares(permissions.ActionMetadata)).To(BeTrue(), name)
			Expect(policy.Declares(permissions.ActionList)).To(BeTrue(), name)
		}
	})

	It("fails closed on undeclared actions", func() {
		_, err := registry.Evaluate(permissions.ResourceActivityLogs, permissions.ActionDestroy, request(admin, http.MethodDelete, nil), nil)
		Expect(permissions.IsConfigurationError(err)).To(BeTrue())
	})
})
