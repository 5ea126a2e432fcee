package dto

import "github.com/noah-isme/sma-beasiswa-api/internal/models"

// RegisterStudentRequest creates a student account with its profile.
type RegisterStudentRequest struct {
	Email          string            `json:"email" validate:"required,email"`
	Password       string            `json:"password" validate:"required,min=6"`
	FullName       string            `json:"full_name" validate:"required"`
	NIS            string            `json:"nis" validate:"required"`
	SchoolName     string            `json:"school_name" validate:"required"`
	SchoolType     models.SchoolType `json:"school_type" validate:"required"`
	GPA            float64           `json:"gpa" validate:"gte=0,lte=4"`
	UnitsCompleted int               `json:"units_completed" validate:"gte=0"`
	Phone          string            `json:"phone"`
	Address        string            `json:"address"`
}

// UpdateStudentProfileRequest modifies mutable profile fields.
type UpdateStudentProfileRequest struct {
	FullName       *string  `json:"full_name"`
	SchoolName     *string  `json:"school_name"`
	GPA            *float64 `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	UnitsCompleted *int     `json:"units_completed" validate:"omitempty,gte=0"`
	Phone          *string  `json:"phone"`
	Address        *string  `json:"address"`
}
