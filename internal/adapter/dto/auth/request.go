package auth

// LoginRequest is the password gate submission
type LoginRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}
