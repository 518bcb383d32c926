package dto

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a partial update: nil fields are left untouched,
// an empty string clears an optional field.
type UpdateProfileRequest struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Address         *string `json:"address,omitempty"`
	TaxID           *string `json:"tax_id,omitempty"`
	BusinessName    *string `json:"business_name,omitempty"`
	AvatarURL       *string `json:"avatar_url,omitempty"`
	CurrentPassword string  `json:"current_password,omitempty"`
	NewPassword     string  `json:"new_password,omitempty"`
}

type RecoverPasswordRequest struct {
	Email string `json:"email"`
}

type AuthResponse struct {
	OK   bool         `json:"ok"`
	User UserResponse `json:"user"`
}

// SessionResponse is returned by the current-session endpoint; User is null
// for anonymous callers.
type SessionResponse struct {
	User *UserResponse `json:"user"`
}

type MessageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	OK      bool              `json:"ok"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
