package domain

// BookingStatus values form a closed set.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no-show"
)

// PaymentStatus values form a closed set.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// PassengerSnapshot captures passenger identity at booking time. Bookings are
// never re-joined against the live account record, so a booking's display
// survives later account changes or deletion.
type PassengerSnapshot struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Email  string `json:"email" bson:"email"`
	Type   Role   `json:"type" bson:"type"`
	Number string `json:"number,omitempty" bson:"number,omitempty"`
}

// Booking ties a passenger to a seat on a bus for a trip. BusID and RouteID
// are soft references. At most one confirmed booking may exist per
// (busId, seatNumber) pair at any time.
type Booking struct {
	ID            string            `json:"id" bson:"_id"`
	BusID         string            `json:"busId" bson:"busId"`
	RouteID       string            `json:"routeId,omitempty" bson:"routeId,omitempty"`
	Passenger     PassengerSnapshot `json:"passenger" bson:"passenger"`
	SeatNumber    string            `json:"seatNumber" bson:"seatNumber"`
	TripDate      string            `json:"tripDate" bson:"tripDate"`
	TripTime      string            `json:"tripTime" bson:"tripTime"`
	Status        BookingStatus     `json:"status" bson:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus" bson:"paymentStatus"`
	Amount        float64           `json:"amount" bson:"amount"`
	CreatedAt     string            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     string            `json:"updatedAt" bson:"updatedAt"`
}

func (b Booking) RecordID() string { return b.ID }

// BusBookingSummary aggregates bookings for one bus. Revenue sums the amounts
// of confirmed bookings only.
type BusBookingSummary struct {
	BusID         string  `json:"busId"`
	PlateNumber   string  `json:"plateNumber,omitempty"`
	Total         int     `json:"total"`
	Confirmed     int     `json:"confirmed"`
	Cancelled     int     `json:"cancelled"`
	Revenue       float64 `json:"revenue"`
	LastBookingAt string  `json:"lastBookingAt,omitempty"`
}
