package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/farmersheaven/backend/app"
	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/permissions"
	"github.com/spf13/cobra"
)

// cliPrincipalID identifies the principal simulated by policy check
const cliPrincipalID = "cli"

func newPolicyCmd() *cobra.Command {
	var file string
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect permission policies",
	}
	policyCmd.PersistentFlags().StringVar(&file, "file", os.Getenv("POLICY_FILE"), "policy file, built-in policies when empty")
	policyCmd.AddCommand(
		newPolicyListCmd(&file),
		newPolicyCheckCmd(&file),
	)
	return policyCmd
}

func newPolicyListCmd(file *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the effective policies in policy file layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.LoadRegistry(config.PolicyConfig{File: *file})
			if err != nil {
				return err
			}
			return permissions.Dump(cmd.OutOrStdout(), reg)
		},
	}
}

func newPolicyCheckCmd(file *string) *cobra.Command {
	var (
		resource      string
		action        string
		method        string
		authenticated bool
		superuser     bool
		params        []string
	)
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate one action for a simulated principal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.LoadRegistry(config.PolicyConfig{File: *file})
			if err != nil {
				return err
			}
			policy, err := reg.Lookup(resource)
			if err != nil {
				return err
			}
			expr, err := policy.Expression(action)
			if err != nil {
				return err
			}

			query := url.Values{}
			for _, p := range params {
				key, value, ok := strings.Cut(p, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid --param %q: want key=value", p)
				}
				query.Add(key, value)
			}

			principal := permissions.Anonymous()
			if authenticated || superuser {
				principal = permissions.Principal{ID: cliPrincipalID, Authenticated: true, SuperUser: superuser}
			}
			req := &permissions.Request{
				Principal: principal,
				Method:    strings.ToUpper(method),
				Query:     query,
			}

			verdict := "denied"
			if expr.HasPermission(req) {
				verdict = "allowed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s.%s\n%s\n",
				verdict, req.Method, resource, action, permissions.Render(expr))
			return nil
		},
	}
	checkCmd.Flags().StringVar(&resource, "resource", "", "resource name")
	checkCmd.Flags().StringVar(&action, "action", "", "action name")
	checkCmd.Flags().StringVar(&method, "method", http.MethodGet, "HTTP method")
	checkCmd.Flags().BoolVar(&authenticated, "authenticated", false, "simulate a signed in user")
	checkCmd.Flags().BoolVar(&superuser, "superuser", false, "simulate a superuser")
	checkCmd.Flags().StringArrayVar(&params, "param", nil, "query parameter as key=value, repeatable")
	_ = checkCmd.MarkFlagRequired("resource")
	_ = checkCmd.MarkFlagRequired("action")
	return checkCmd
}
