// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a placement-experience write-up.
type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Title    string   `gorm:"not null" json:"title"`
	Content  string   `gorm:"type:text;not null" json:"content"`
	Company  string   `gorm:"not null;index" json:"company"`
	College  string   `json:"college,omitempty"`
	Role     string   `gorm:"not null" json:"role"`
	Tags     []string `gorm:"type:text;serializer:json" json:"tags"`
	AuthorID uint     `gorm:"not null;index" json:"author_id"`
	Author   User     `gorm:"foreignKey:AuthorID" json:"author"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// IsLiked and IsBookmarked are relative to the requesting viewer
	IsLiked      bool           `gorm:"->;-:migration" json:"is_liked"`
	IsBookmarked bool           `gorm:"->;-:migration" json:"is_bookmarked"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
