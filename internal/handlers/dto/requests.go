package dto

// FlagsRequest toggles account flags from the admin console. Absent fields
// are left unchanged.
type FlagsRequest struct {
	IsActive *bool `json:"is_active"`
	IsStaff  *bool `json:"is_staff"`
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"`
	User      UserResponse `json:"user"`
}

// StatusResponse is the join/leave reply.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
