package parley

// Role represents the role of a message sender.
type Role string

const (
	RoleClient     Role = "client"
	RoleAssistant  Role = "assistant"
	RoleSupervisor Role = "supervisor"
	RoleSystem     Role = "system"
)
