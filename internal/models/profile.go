package models

import "time"

type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Therapist struct {
	ID string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	// UserID links the therapist to the profile that receives in-app notifications.
	UserID    string    `gorm:"index" json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
