package models

import "time"

// Follow is a directed subscription from User to Author.
// A user can never follow themselves; the check constraint backs up the
// repository guard.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_pair;check:chk_follows_not_self,user_id <> author_id" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Follow) TableName() string {
	return "follows"
}
