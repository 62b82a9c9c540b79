package validation

import (
	"strconv"
	"strings"
)

// PostForm is the create/edit post submission.
type PostForm struct {
	Text  string `form:"text" json:"text" validate:"notblank"`
	Group string `form:"group" json:"group"`
}

// GroupID parses the optional group selection. An empty value means no group.
func (f PostForm) GroupID() (*uint, bool) {
	raw := strings.TrimSpace(f.Group)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, false
	}
	id := uint(n)
	return &id, true
}

// CommentForm is the add-comment submission.
type CommentForm struct {
	Text string `form:"text" json:"text" validate:"notblank"`
}

// GroupForm creates a group from the admin CLI.
type GroupForm struct {
	Title       string `form:"title" json:"title" validate:"notblank,max=200"`
	Slug        string `form:"slug" json:"slug" validate:"required,slug,max=50"`
	Description string `form:"description" json:"description"`
}

// SignupForm registers a new account.
type SignupForm struct {
	Username  string `form:"username" json:"username" validate:"required,username"`
	Email     string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Password  string `form:"password" json:"-" validate:"required,min=8,max=128"`
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"-" validate:"required"`
}
