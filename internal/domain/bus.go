package domain

// BusStatus values form a closed set.
type BusStatus string

const (
	BusAvailable   BusStatus = "available"
	BusInService   BusStatus = "in-service"
	BusMaintenance BusStatus = "maintenance"
)

// Bus is a vehicle in the fleet. DriverID and RouteID are soft references:
// id-valued pointers with no integrity enforcement and no cascade.
type Bus struct {
	ID          string    `json:"id" bson:"_id"`
	PlateNumber string    `json:"plateNumber" bson:"plateNumber"`
	Capacity    int       `json:"capacity" bson:"capacity"`
	Status      BusStatus `json:"status" bson:"status"`
	DriverID    string    `json:"driverId,omitempty" bson:"driverId,omitempty"`
	RouteID     string    `json:"routeId,omitempty" bson:"routeId,omitempty"`
	CreatedAt   string    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   string    `json:"updatedAt" bson:"updatedAt"`
}

func (b Bus) RecordID() string { return b.ID }

// RouteStatus values form a closed set.
type RouteStatus string

const (
	RouteActive   RouteStatus = "active"
	RouteInactive RouteStatus = "inactive"
)

// Route is a named path between two points with an ordered list of stops.
type Route struct {
	ID            string      `json:"id" bson:"_id"`
	Name          string      `json:"name" bson:"name"`
	StartPoint    string      `json:"startPoint" bson:"startPoint"`
	EndPoint      string      `json:"endPoint" bson:"endPoint"`
	EstimatedTime string      `json:"estimatedTime" bson:"estimatedTime"`
	Distance      string      `json:"distance" bson:"distance"`
	Status        RouteStatus `json:"status" bson:"status"`
	Stops         []string    `json:"stops" bson:"stops"`
	CreatedAt     string      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     string      `json:"updatedAt" bson:"updatedAt"`
}

func (r Route) RecordID() string { return r.ID }

// SeatAvailability is a derived snapshot per bus, recomputed after every
// booking mutation. It is never a source of truth on its own.
type SeatAvailability struct {
	BusID             string   `json:"busId" bson:"_id"`
	TotalSeats        int      `json:"totalSeats" bson:"totalSeats"`
	BookedSeats       int      `json:"bookedSeats" bson:"bookedSeats"`
	AvailableSeats    int      `json:"availableSeats" bson:"availableSeats"`
	BookedSeatNumbers []string `json:"bookedSeatNumbers" bson:"bookedSeatNumbers"`
	UpdatedAt         string   `json:"updatedAt" bson:"updatedAt"`
}

func (s SeatAvailability) RecordID() string { return s.BusID }
