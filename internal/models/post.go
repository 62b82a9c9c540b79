package models

import "time"

// Post is a user-authored text entry, optionally tagged with a group and an image.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"pub_date"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	UpdatedAt time.Time `json:"-"`

	// Resolved by the image service before a post is rendered.
	ImageURL        string `gorm:"-" json:"image_url,omitempty"`
	ImagePreviewURL string `gorm:"-" json:"image_preview_url,omitempty"`
}

// Excerpt returns the first 15 characters of the post text.
func (p Post) Excerpt() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}
