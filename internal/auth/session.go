package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	RoleKey     string   `json:"role"`
	Permissions []string `json:"permissions"`
}
