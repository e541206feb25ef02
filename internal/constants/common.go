package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"

	// Header carrying the authenticated caller identity, set by the
	// upstream gateway.
	CallerAddressHeader = "X-Caller-Address"

	// Built-in role name used by seed documents and tests
	AdminRoleName = "ADMIN"
)

// Error messages used throughout the API handlers
const (
	CallerAddressMissing = "caller address header is required"
)
