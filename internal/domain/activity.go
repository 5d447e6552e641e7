package domain

// ActivityEntry is one line of the append-only activity log. Entries are
// never updated or deleted by normal operation.
type ActivityEntry struct {
	ID          string            `json:"id" bson:"_id"`
	Type        string            `json:"type" bson:"type"`
	Description string            `json:"description" bson:"description"`
	UserID      string            `json:"userId,omitempty" bson:"userId,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   string            `json:"createdAt" bson:"createdAt"`
}

func (a ActivityEntry) RecordID() string { return a.ID }

// SettingsID keys the single logical SystemSettings record.
const SettingsID = "system"

// SystemSettings is the singleton configuration record, created with
// defaults on first read if absent.
type SystemSettings struct {
	ID                      string  `json:"id" bson:"_id"`
	BookingPrice            float64 `json:"bookingPrice" bson:"bookingPrice"`
	AdvanceBookingDays      int     `json:"advanceBookingDays" bson:"advanceBookingDays"`
	CancellationWindowHours int     `json:"cancellationWindowHours" bson:"cancellationWindowHours"`
	NotificationsEnabled    bool    `json:"notificationsEnabled" bson:"notificationsEnabled"`
	MaintenanceMode         bool    `json:"maintenanceMode" bson:"maintenanceMode"`
	UpdatedBy               string  `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt               string  `json:"createdAt" bson:"createdAt"`
	UpdatedAt               string  `json:"updatedAt" bson:"updatedAt"`
}

func (s SystemSettings) RecordID() string { return s.ID }

// DefaultSettings returns the values the settings singleton is created with.
func DefaultSettings() SystemSettings {
	now := NowISO()
	return SystemSettings{
		ID:                      SettingsID,
		BookingPrice:            200,
		AdvanceBookingDays:      7,
		CancellationWindowHours: 24,
		NotificationsEnabled:    true,
		MaintenanceMode:         false,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}
