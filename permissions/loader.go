package permissions

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// policyFile is the YAML layout of a policy file:
//
//	policies:
//	  users:
//	    enough: IsSuperUser
//	    actions:
//	      login: AllowAny
//	      list: null
//
// A null action places no restriction beyond global and enough.
type policyFile struct {
	Policies map[string]policyDecl `yaml:"policies"`
}

type policyDecl struct {
	Global  *string            `yaml:"global,omitempty"`
	Enough  *string            `yaml:"enough,omitempty"`
	Actions map[string]*string `yaml:"actions"`
}

// LoadPolicies decodes a YAML policy file into a registry, resolving
// expressions through cat.
func LoadPolicies(r io.Reader, cat *Catalog) (*Registry, error) {
	var file policyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode policy file: %w", err)
	}
	if len(file.Policies) == 0 {
		return nil, fmt.Errorf("policy file declares no policies")
	}

	names := make([]string, 0, len(file.Policies))
	for name := range file.Policies {
		names = append(names, name)
	}
	sort.Strings(names)

	policies := make([]*Policy, 0, len(names))
	for _, name := range names {
		p, err := buildPolicy(name, file.Policies[name], cat)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return NewRegistry(policies...)
}

// LoadPolicyFile opens path and calls LoadPolicies.
func LoadPolicyFile(path string, cat *Catalog) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open policy file: %w", err)
	}
	defer f.Close()
	return LoadPolicies(f, cat)
}

func buildPolicy(name string, decl policyDecl, cat *Catalog) (*Policy, error) {
	if len(decl.Actions) == 0 {
		return nil, fmt.Errorf("policy %q declares no actions", name)
	}
	rules := make(Rules, len(decl.Actions))
	for action, src := range decl.Actions {
		if src == nil {
			rules[action] = nil
			continue
		}
		comp, err := cat.Parse(*src)
		if err != nil {
			return nil, fmt.Errorf("policy %q action %q: %w", name, action, err)
		}
		rules[action] = comp
	}

	var opts []Option
	if decl.Global != nil {
		comp, err := cat.Parse(*decl.Global)
		if err != nil {
			return nil, fmt.Errorf("policy %q global: %w", name, err)
		}
		opts = append(opts, WithGlobal(comp))
	}
	if decl.Enough != nil {
		comp, err := cat.Parse(*decl.Enough)
		if err != nil {
			return nil, fmt.Errorf("policy %q enough: %w", name, err)
		}
		opts = append(opts, WithEnough(comp))
	}
	return NewPolicy(name, rules, opts...), nil
}

// Dump renders a registry in the policy file layout. It fails without
// writing anything when a rule holds a component with no expression form.
func Dump(w io.Writer, reg *Registry) error {
	file := policyFile{Policies: make(map[string]policyDecl)}
	for _, name := range reg.Names() {
		p, _ := reg.Lookup(name)
		decl := policyDecl{Actions: make(map[string]*string)}
		if p.Global() != nil {
			s, err := renderSlot(name, "global", p.Global())
			if err != nil {
				return err
			}
			decl.Global = &s
		}
		if p.Enough() != nil {
			s, err := renderSlot(name, "enough", p.Enough())
			if err != nil {
				return err
			}
			decl.Enough = &s
		}
		for _, action := range p.Actions() {
			expr := p.rules[action]
			if expr == nil {
				decl.Actions[action] = nil
				continue
			}
			s, err := renderSlot(name, action, expr)
			if err != nil {
				return err
			}
			decl.Actions[action] = &s
		}
		file.Policies[name] = decl
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode policy file: %w", err)
	}
	return enc.Close()
}

func renderSlot(policy, slot string, c Component) (string, error) {
	if err := CheckRenderable(c); err != nil {
		return "", fmt.Errorf("policy %q %s: %w", policy, slot, err)
	}
	return Render(c), nil
}
