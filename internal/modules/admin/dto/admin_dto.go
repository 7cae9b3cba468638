package dto

import userDto "anoa.com/akademika/internal/modules/user/dto"

// CreateUserInput is the admin variant of registration: the role must be chosen explicitly.
type CreateUserInput struct {
	Username    string  `json:"username" validate:"required,username"`
	Email       string  `json:"email" validate:"required,email,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	FirstName   string  `json:"first_name" validate:"required,max=50"`
	LastName    string  `json:"last_name" validate:"max=50"`
	Role        string  `json:"role" validate:"required,oneof=student lecturer admin"`
}

func (in CreateUserInput) RegisterInput() userDto.RegisterInput {
	return userDto.RegisterInput{
		Username:    in.Username,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Password:    in.Password,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Role:        in.Role,
	}
}
