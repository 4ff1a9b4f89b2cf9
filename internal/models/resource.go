package models

import "time"

// ResourceType enumerates the kinds of study material.
type ResourceType string

const (
	ResourceTypePDF   ResourceType = "PDF"
	ResourceTypeVideo ResourceType = "Video"
	ResourceTypeLink  ResourceType = "Link"
	ResourceTypeImage ResourceType = "Image"
	ResourceTypeNote  ResourceType = "Note"
	ResourceTypeSlide ResourceType = "Slide"
)

// ResourceTypes lists every accepted ResourceType.
var ResourceTypes = []ResourceType{
	ResourceTypePDF, ResourceTypeVideo, ResourceTypeLink,
	ResourceTypeImage, ResourceTypeNote, ResourceTypeSlide,
}

// Valid reports whether t is one of ResourceTypes.
func (t ResourceType) Valid() bool {
	for _, v := range ResourceTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Resource is a curated preparation resource.
type Resource struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"not null" json:"title"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	Content      string       `gorm:"type:text;not null" json:"content"`
	ResourceType ResourceType `gorm:"not null;index" json:"resource_type"`
	FileURL      string       `json:"file_url,omitempty"`
	Link         string       `json:"link,omitempty"`
	Link2        string       `json:"link2,omitempty"`
	Link3        string       `json:"link3,omitempty"`
	Tags         []string     `gorm:"type:text;serializer:json" json:"tags"`
	Author       string       `json:"author,omitempty"`
	CreatedByID  uint         `gorm:"index" json:"created_by_id"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}
