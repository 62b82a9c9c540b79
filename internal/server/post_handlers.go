package server

import (
	"strconv"

	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// postForm is a post form as re-presented to the author.
type postForm struct {
	Text   string            `json:"text"`
	Group  string            `json:"group"`
	Errors map[string]string `json:"errors,omitempty"`
}

// postFormPage is the context of the new and edit post pages.
type postFormPage struct {
	Form   postForm       `json:"form"`
	Title  string         `json:"title"`
	Button string         `json:"button"`
	Post   *models.Post   `json:"post,omitempty"`
	Groups []models.Group `json:"groups"`
}

func (s *Server) renderPostForm(c *fiber.Ctx, page postFormPage) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	page.Groups = groups
	if page.Post == nil {
		page.Title, page.Button = "New post", "Add"
	} else {
		page.Title, page.Button = "Edit post", "Save"
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// Index handles GET /
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.ListIndex(c.UserContext(), parsePage(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"page": page})
}

// GroupPosts handles GET /group/:slug/
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	out, err := s.postService.ListGroup(c.UserContext(), c.Params("slug"), parsePage(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(out)
}

// FollowIndex handles GET /follow/
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.postService.Feed(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"page": page})
}

// NewPostForm handles GET /new/
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, postFormPage{})
}

// CreatePost handles POST /new/
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var form validation.PostForm
	if err := bindForm(c, &form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	upload, err := s.readUpload(c)
	if err != nil {
		return s.fail(c, err)
	}

	_, err = s.postService.Create(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Text:     form.Text,
		Group:    form.Group,
		Image:    upload,
	})
	if errs := fieldErrors(err); errs != nil {
		return s.renderPostForm(c, postFormPage{
			Form: postForm{Text: form.Text, Group: form.Group, Errors: errs},
		})
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// PostEditForm handles GET /:username/:post_id/edit/
func (s *Server) PostEditForm(c *fiber.Ctx) error {
	username := c.Params("username")
	postID, ok := parseID(c, "post_id")
	if !ok {
		return renderNotFound(c)
	}

	post, err := s.postService.Get(c.UserContext(), username, postID)
	if err != nil {
		return s.fail(c, err)
	}
	if uid := currentUserID(c); uid == 0 || uid != post.AuthorID {
		return c.Redirect(postURL(username, postID), fiber.StatusFound)
	}

	form := postForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return s.renderPostForm(c, postFormPage{Form: form, Post: post})
}

// PostEdit handles POST /:username/:post_id/edit/
func (s *Server) PostEdit(c *fiber.Ctx) error {
	username := c.Params("username")
	postID, ok := parseID(c, "post_id")
	if !ok {
		return renderNotFound(c)
	}

	var form validation.PostForm
	if err := bindForm(c, &form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	upload, err := s.readUpload(c)
	if err != nil {
		return s.fail(c, err)
	}

	post, err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		UserID:   currentUserID(c),
		Username: username,
		PostID:   postID,
		Text:     form.Text,
		Group:    form.Group,
		Image:    upload,
	})
	if err == nil || models.ErrorCode(err) == models.CodeForbidden {
		return c.Redirect(postURL(username, postID), fiber.StatusFound)
	}
	if errs := fieldErrors(err); errs != nil {
		return s.renderPostForm(c, postFormPage{
			Form: postForm{Text: form.Text, Group: form.Group, Errors: errs},
			Post: post,
		})
	}
	return s.fail(c, err)
}

// PostDelete handles POST /:username/:post_id/delete/
func (s *Server) PostDelete(c *fiber.Ctx) error {
	username := c.Params("username")
	postID, ok := parseID(c, "post_id")
	if !ok {
		return renderNotFound(c)
	}

	err := s.postService.Delete(c.UserContext(), currentUserID(c), username, postID)
	if models.ErrorCode(err) == models.CodeForbidden {
		return c.Redirect(postURL(username, postID), fiber.StatusFound)
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.Redirect(profileURL(username), fiber.StatusFound)
}
