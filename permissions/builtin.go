package permissions

import (
	"fmt"
	"net/http"
	"strings"
)

var (
	// AllowAny grants every request.
	AllowAny Component = &rule{
		name:   "AllowAny",
		action: func(*Request) bool { return true },
	}

	// DenyAll refuses every request.
	DenyAll Component = &rule{
		name:   "DenyAll",
		action: func(*Request) bool { return false },
	}

	// IsAuthenticated grants authenticated principals.
	IsAuthenticated Component = &rule{
		name:   "IsAuthenticated",
		action: func(req *Request) bool { return req.Principal.Authenticated },
	}

	// IsSuperUser grants authenticated principals carrying the superuser flag.
	IsSuperUser Component = &rule{
		name: "IsSuperUser",
		action: func(req *Request) bool {
			return req.Principal.Authenticated && req.Principal.SuperUser
		},
	}

	// IsObjectOwner grants the owner of the target. It denies at action level.
	IsObjectOwner Component = &rule{
		name:   "IsObjectOwner",
		action: func(*Request) bool { return false },
		object: func(req *Request, target any) bool {
			owned, ok := target.(Owned)
			if !ok || owned == nil || !req.Principal.Authenticated {
				return false
			}
			owner := owned.OwnerID()
			return owner != "" && owner == req.Principal.ID
		},
	}

	// IsTheSameUser grants a principal acting on its own identity. At action
	// level it only requires an identified principal.
	IsTheSameUser Component = &rule{
		name: "IsTheSameUser",
		action: func(req *Request) bool {
			return req.Principal.Authenticated && req.Principal.ID != ""
		},
		object: func(req *Request, target any) bool {
			if !req.Principal.Authenticated || req.Principal.ID == "" {
				return false
			}
			identified, ok := target.(Identified)
			if !ok || identified == nil {
				return false
			}
			return identified.PrincipalID() == req.Principal.ID
		},
	}

	// AllowAnyGetPerm grants GET requests.
	AllowAnyGetPerm = MethodIs(http.MethodGet)

	// AllowAnyPostPerm grants POST requests.
	AllowAnyPostPerm = MethodIs(http.MethodPost)

	// AllOnlyGetPerm grants authenticated GET requests.
	AllOnlyGetPerm = AuthenticatedMethod(http.MethodGet)
)

// HasMandatoryParam grants requests whose query carries a non-empty value
// for name. Requests without a query are denied.
func HasMandatoryParam(name string) Component {
	return &rule{
		name: fmt.Sprintf("HasMandatoryParam(%q)", name),
		action: func(req *Request) bool {
			if req.Query == nil || name == "" {
				return false
			}
			return req.Query.Get(name) != ""
		},
	}
}

// MethodIs grants requests made with the given HTTP method.
func MethodIs(method string) Component {
	method = strings.ToUpper(method)
	return &rule{
		name: methodRuleName("MethodIs", method),
		action: func(req *Request) bool {
			return strings.EqualFold(req.Method, method)
		},
	}
}

// AuthenticatedMethod grants authenticated requests made with the given
// HTTP method.
func AuthenticatedMethod(method string) Component {
	method = strings.ToUpper(method)
	return &rule{
		name: methodRuleName("AuthenticatedMethod", method),
		action: func(req *Request) bool {
			return req.Principal.Authenticated && strings.EqualFold(req.Method, method)
		},
	}
}

func methodRuleName(kind, method string) string {
	switch {
	case kind == "MethodIs" && method == http.MethodGet:
		return "AllowAnyGetPerm"
	case kind == "MethodIs" && method == http.MethodPost:
		return "AllowAnyPostPerm"
	case kind == "AuthenticatedMethod" && method == http.MethodGet:
		return "AllOnlyGetPerm"
	}
	return fmt.Sprintf("%s(%q)", kind, method)
}
