package domain

// Role classifies an account. The set is closed.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDriver  Role = "driver"
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// ValidRole reports whether r is one of the four known roles.
func ValidRole(r Role) bool {
	_, ok := userCollections[r]
	return ok
}

// UserAccount represents a system user of any role.
//
// Identifier is the role-specific key: registration number for students,
// staff ID for staff, email for drivers and admins. Within a role it is
// unique, and an identifier used by one role must never be reused by another;
// both rules are enforced at registration, not by the stores.
type UserAccount struct {
	ID           string `json:"id" bson:"_id"`
	Role         Role   `json:"role" bson:"role"`
	Identifier   string `json:"identifier" bson:"identifier"`
	Name         string `json:"name" bson:"name"`
	Email        string `json:"email" bson:"email"`
	PasswordHash string `json:"passwordHash" bson:"passwordHash"`

	// Role-specific attributes.
	Course        string `json:"course,omitempty" bson:"course,omitempty"`
	AdmissionYear string `json:"admissionYear,omitempty" bson:"admissionYear,omitempty"`
	Department    string `json:"department,omitempty" bson:"department,omitempty"`

	CreatedAt string `json:"createdAt" bson:"createdAt"`
	UpdatedAt string `json:"updatedAt" bson:"updatedAt"`
}

func (u UserAccount) RecordID() string { return u.ID }
