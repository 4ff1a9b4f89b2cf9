package models

import "time"

// Profile is the optional richer record for a user.
type Profile struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string    `json:"name"`
	Bio       string    `gorm:"type:text" json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	Location  string    `json:"location"`
	Website   string    `json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicProfile is what other users see. It is built from the Profile when
// one exists, otherwise from the bare User record.
type PublicProfile struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Location  string    `json:"location,omitempty"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// HasProfile is false when the response fell back to the user record.
	HasProfile bool `json:"has_profile"`
}

// NewPublicProfile merges a profile and its user. Either may be nil.
func NewPublicProfile(p *Profile, u *User) *PublicProfile {
	switch {
	case p != nil:
		out := &PublicProfile{
			ID:         p.UserID,
			Name:       p.Name,
			Bio:        p.Bio,
			AvatarURL:  p.AvatarURL,
			Location:   p.Location,
			Website:    p.Website,
			CreatedAt:  p.CreatedAt,
			HasProfile: true,
		}
		if out.Name == "" && u != nil {
			out.Name = u.Name
		}
		return out
	case u != nil:
		return &PublicProfile{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
	default:
		return nil
	}
}
