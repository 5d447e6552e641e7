package domain

// Collection names a logical document collection shared by the remote store
// and the local mirror.
type Collection string

const (
	CollectionBuses        Collection = "buses"
	CollectionRoutes       Collection = "routes"
	CollectionBookings     Collection = "bookings"
	CollectionActivities   Collection = "activities"
	CollectionSettings     Collection = "settings"
	CollectionAvailability Collection = "seat_availability"

	CollectionAdmins   Collection = "admins"
	CollectionDrivers  Collection = "drivers"
	CollectionStudents Collection = "students"
	CollectionStaff    Collection = "staff"
)

// userCollections maps each role to its account collection. Role-keyed storage
// is resolved through this table, never by building key strings.
var userCollections = map[Role]Collection{
	RoleAdmin:   CollectionAdmins,
	RoleDriver:  CollectionDrivers,
	RoleStudent: CollectionStudents,
	RoleStaff:   CollectionStaff,
}

// CollectionForRole returns the account collection backing a role.
func CollectionForRole(role Role) (Collection, bool) {
	c, ok := userCollections[role]
	return c, ok
}

// UserRoles lists roles in the order account lookups scan them.
func UserRoles() []Role {
	return []Role{RoleAdmin, RoleStaff, RoleStudent, RoleDriver}
}

// Record is any entity persisted through the dual-write store.
type Record interface {
	RecordID() string
}
