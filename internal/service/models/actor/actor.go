package actor

// Role is the kind of caller performing an operation.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleRider    Role = "rider"
	RoleSystem   Role = "system"
)

// Actor identifies who is performing a dispatch operation. It is passed
// explicitly into every coordinator call instead of being read from shared
// state, and ends up in logs and audit fields.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System is the actor used for internally triggered operations.
var System = Actor{ID: "system", Role: RoleSystem}
