package models

import "time"

// SchoolType categorises the school a student attends.
type SchoolType string

const (
	SchoolTypePublic     SchoolType = "public"
	SchoolTypePrivate    SchoolType = "private"
	SchoolTypeVocational SchoolType = "vocational"
)

// Valid reports whether the school type is one of the known categories.
func (t SchoolType) Valid() bool {
	switch t {
	case SchoolTypePublic, SchoolTypePrivate, SchoolTypeVocational:
		return true
	}
	return false
}

// StudentProfile represents a scholarship applicant's academic profile.
type StudentProfile struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	NIS            string     `db:"nis" json:"nis"`
	FullName       string     `db:"full_name" json:"full_name"`
	SchoolName     string     `db:"school_name" json:"school_name"`
	SchoolType     SchoolType `db:"school_type" json:"school_type"`
	GPA            float64    `db:"gpa" json:"gpa"`
	UnitsCompleted int        `db:"units_completed" json:"units_completed"`
	Phone          string     `db:"phone" json:"phone"`
	Address        string     `db:"address" json:"address"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentProfileFilter encapsulates allowed search parameters for listing profiles.
type StudentProfileFilter struct {
	Search     string
	SchoolType SchoolType
	MinGPA     *float64
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
