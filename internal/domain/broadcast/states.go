package broadcast

// Audience tags
const (
	AudienceAll      = "ALL"
	AudiencePatients = "PATIENTS"
	AudienceDoctors  = "DOCTORS"
	AudienceStaff    = "STAFF"
	AudienceSpecific = "SPECIFIC"
)

// Broadcast message types
const (
	TypeAnnouncement = "ANNOUNCEMENT"
	TypeAlert        = "ALERT"
	TypeUpdate       = "UPDATE"
	TypeMaintenance  = "MAINTENANCE"
)

// Statuses
const (
	StatusDraft     = "DRAFT"
	StatusScheduled = "SCHEDULED"
	StatusSent      = "SENT"
	StatusCancelled = "CANCELLED"
)

// MaxTitleLength bounds broadcast titles.
const MaxTitleLength = 200

// ValidAudience reports whether tag is a known target audience.
func ValidAudience(tag string) bool {
	switch tag {
	case AudienceAll, AudiencePatients, AudienceDoctors, AudienceStaff, AudienceSpecific:
		return true
	}
	return false
}

// ValidMessageType reports whether t is a known broadcast message type.
func ValidMessageType(t string) bool {
	switch t {
	case TypeAnnouncement, TypeAlert, TypeUpdate, TypeMaintenance:
		return true
	}
	return false
}

// CanTransition reports whether a broadcast status change from -> to is
// legal: DRAFT -> SCHEDULED -> SENT, and any state -> CANCELLED. Only
// CANCELLED is terminal; a SENT broadcast can still be cancelled by its
// author, it just keeps its sentAt.
func CanTransition(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusScheduled || to == StatusSent || to == StatusCancelled
	case StatusScheduled:
		return to == StatusSent || to == StatusCancelled
	case StatusSent:
		return to == StatusCancelled
	}
	return false
}
