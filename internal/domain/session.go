package domain

// Session is the caller identity handed to every operation that needs one.
// A nil *Session means the caller is anonymous.
type Session struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// Authenticated reports whether s identifies a signed-in user.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// CanModerate reports whether s may pin or lock threads.
func (s *Session) CanModerate() bool {
	return s.Authenticated() && (s.Role == RoleModerator || s.Role == RoleAdmin)
}

// IsAdmin reports whether s holds the admin role.
func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}
