package model

// Role is the inferred semantic type of a source column.
type Role string

const (
	RoleNumeric     Role = "numeric"
	RoleCategorical Role = "categorical"
	RoleTemporal    Role = "temporal"
	RoleLatitude    Role = "latitude"
	RoleLongitude   Role = "longitude"
	RoleIdentifier  Role = "identifier"
	RoleUnknown     Role = "unknown"
)

// ColumnProfile describes one source column: its inferred role and the
// fraction of sampled non-empty values that matched that role.
// Profiles are computed once per dataset load and are immutable until a
// new dataset replaces them.
type ColumnProfile struct {
	Name       string  `json:"name"`
	Role       Role    `json:"role"`
	Confidence float64 `json:"confidence"`
}
