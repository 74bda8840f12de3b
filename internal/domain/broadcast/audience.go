package broadcast

// User roles produced by the authentication boundary.
const (
	RolePatient = "PATIENT"
	RoleDoctor  = "DOCTOR"
	RoleStaff   = "STAFF"
	RoleAdmin   = "ADMIN"
)

// ResolveAudience maps a principal's role to the audience tag used for
// broadcast visibility. Anything that is not a patient or doctor counts as
// staff.
func ResolveAudience(role string) string {
	switch role {
	case RolePatient:
		return AudiencePatients
	case RoleDoctor:
		return AudienceDoctors
	default:
		return AudienceStaff
	}
}

// CanCreateBroadcast reports whether the role is allowed to author
// broadcasts.
func CanCreateBroadcast(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
