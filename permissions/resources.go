package permissions

// Resource names.
const (
	ResourceUsers        = "users"
	ResourceSettings     = "settings"
	ResourceDocuments    = "documents"
	ResourceActivityLogs = "activity_logs"
)

// Standard controller actions.
const (
	ActionMetadata      = "metadata"
	ActionRetrieve      = "retrieve"
	ActionCreate        = "create"
	ActionUpdate        = "update"
	ActionPartialUpdate = "partial_update"
	ActionDestroy       = "destroy"
	ActionList          = "list"
)

// Settings actions, one per admin collection.
const (
	ActionDropdown = "dropdown"
	ActionCountry  = "country"
	ActionState    = "state"
	ActionCity     = "city"
	ActionProducts = "products"
)

// UserPolicy gates the accounts endpoints. Authentication flows are open,
// user management is reserved to superusers.
func UserPolicy() *Policy {
	return NewPolicy(ResourceUsers, Rules{
		ActionMetadata:      AllowAny,
		ActionRetrieve:      IsSuperUser,
		ActionCreate:        IsSuperUser,
		ActionUpdate:        IsSuperUser,
		ActionPartialUpdate: IsSuperUser,
		ActionDestroy:       IsSuperUser,
		ActionList:          IsSuperUser,
		"me":                IsAuthenticated,
		"oauth_start":       AllowAny,
		"oauth_callback":    AllowAny,
		"login":             AllowAny,
		"customer_login":    AllowAny,
		"correct":           AllowAny,
		"user_clone":        AllowAny,
		"password_change":   AllowAny,
		"user_reset_mail":   AllowAny,
		"reset_password":    AllowAny,
		"send_otp":          AllowAny,
		"resend_otp":        AllowAny,
		"verify_otp":        AllowAny,
	})
}

// SettingsPolicy gates dynamic settings, locations and products.
func SettingsPolicy() *Policy {
	return NewPolicy(ResourceSettings, Rules{
		ActionMetadata:      AllowAny,
		ActionRetrieve:      Or(IsSuperUser, IsAuthenticated),
		ActionCreate:        IsSuperUser,
		ActionUpdate:        IsSuperUser,
		ActionPartialUpdate: IsSuperUser,
		ActionDestroy:       IsSuperUser,
		ActionList:          Or(IsSuperUser, IsAuthenticated, AllOnlyGetPerm),
		ActionDropdown:      Or(IsSuperUser, AllOnlyGetPerm),
		ActionCountry:       Or(IsSuperUser, AllOnlyGetPerm, AllowAnyGetPerm),
		ActionState:         Or(IsSuperUser, AllOnlyGetPerm, AllowAnyGetPerm),
		ActionCity:          Or(IsSuperUser, AllOnlyGetPerm, AllowAnyGetPerm),
		ActionProducts:      Or(IsSuperUser, AllowAnyGetPerm),
	})
}

// DocumentPolicy gates uploaded documents.
func DocumentPolicy() *Policy {
	return NewPolicy(ResourceDocuments, Rules{
		ActionMetadata:          AllowAny,
		ActionRetrieve:          AllowAny,
		ActionCreate:            AllowAny,
		ActionList:              AllowAny,
		ActionUpdate:            IsSuperUser,
		ActionPartialUpdate:     IsSuperUser,
		ActionDestroy:           IsSuperUser,
		"create_with_base64":    AllowAny,
		"multiple":              AllowAny,
		"presigned_url":         AllowAny,
		"onboard_presigned_url": AllowAny,
		"download_file":         HasMandatoryParam("path"),
	})
}

// ActivityLogPolicy reserves the activity log to superusers.
func ActivityLogPolicy() *Policy {
	return NewPolicy(ResourceActivityLogs, Rules{
		ActionMetadata: nil,
		ActionRetrieve: nil,
		ActionList:     nil,
	}, WithGlobal(IsSuperUser))
}

// DefaultRegistry returns the registry of every built-in resource policy.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(UserPolicy(), SettingsPolicy(), DocumentPolicy(), ActivityLogPolicy())
	if err != nil {
		panic(err)
	}
	return reg
}
