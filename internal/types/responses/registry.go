package responses

// RoleResponse is the wire form of a role with its members and permissions.
type RoleResponse struct {
	Hash        string               `json:"hash"`
	Name        string               `json:"name"`
	MaxMembers  int                  `json:"max_members"`
	Members     []string             `json:"members"`
	Permissions []PermissionResponse `json:"permissions"`
}

// PermissionResponse is one function permission of a role.
type PermissionResponse struct {
	Function string   `json:"function"`
	Actions  []string `json:"actions"`
	ActsOn   []string `json:"acts_on,omitempty"`
}

// FunctionSchemaResponse is the wire form of a registered function schema.
type FunctionSchemaResponse struct {
	Function          string   `json:"function"`
	Signature         string   `json:"signature"`
	OperationCategory string   `json:"operation_category"`
	OperationName     string   `json:"operation_name"`
	SupportedActions  []string `json:"supported_actions"`
	Guarded           bool     `json:"guarded"`
	HandlerFor        []string `json:"handler_for,omitempty"`
}

// WhitelistResponse is the target whitelist of a function. Restricted is
// false when no whitelist is configured (default allow).
type WhitelistResponse struct {
	Function   string   `json:"function"`
	Restricted bool     `json:"restricted"`
	Targets    []string `json:"targets,omitempty"`
}
