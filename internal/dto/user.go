package dto

import "github.com/yukikurage/coaching-plans-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64  `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Provider *string `json:"provider,omitempty"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Provider: user.Provider,
	}
}
