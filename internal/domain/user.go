package domain

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleWorker   UserRole = "worker"
	UserRoleAdmin    UserRole = "admin"
)

// Profile is the identity data the core needs about a user.
type Profile struct {
	ID            int32          `json:"id"`
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	CompanyName   string         `json:"company_name"`
	Role          UserRole       `json:"role"`
	PushToken     string         `json:"-"`
	LastKnownTier MembershipTier `json:"last_known_tier"`
}

type TeamRole string

const (
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

type TeamMember struct {
	TeamID int32    `json:"team_id"`
	UserID int32    `json:"user_id"`
	Role   TeamRole `json:"role"`
	Status string   `json:"status"`
}
