package constants

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"

	SessionCookieName    = "coach_session"
	SessionKeyOAuthState = "oauth_state"
)

// Account rules
const (
	MinPasswordLength = 8
)

// Plan rules
const (
	// DefaultPlanCategory is assigned to plans produced through the chat flow.
	DefaultPlanCategory = "personal"
	MaxStepsPerPlan     = 100
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
