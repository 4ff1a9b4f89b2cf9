package models

import "time"

// User is the public user record. Its ID equals the owning Account's ID and
// it is created lazily after the first sign-in.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"index" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
