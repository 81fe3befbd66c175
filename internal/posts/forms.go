package posts

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"backend-yatube/internal/storage"
)

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgTitleTooLong  = "Ensure this value has at most 200 characters."
	msgInvalidSlug   = "Enter a valid “slug” consisting of letters, numbers, underscores or hyphens."
)

var slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// FieldErrors maps a form field to its messages.
type FieldErrors map[string][]string

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// PostForm is the submitted post form. Group holds the raw group id; an
// empty value means no group.
type PostForm struct {
	Text  string          `json:"text" form:"text"`
	Group string          `json:"group" form:"group"`
	Image *storage.Upload `json:"-" form:"-"`
}

type CommentForm struct {
	Text string `json:"text" form:"text"`
}

type GroupForm struct {
	Title       string `json:"title" form:"title"`
	Slug        string `json:"slug" form:"slug"`
	Description string `json:"description" form:"description"`
}

// PostInput is a validated post form.
type PostInput struct {
	Text    string
	GroupID *int64
	Image   *storage.Upload
}

type GroupChecker interface {
	GroupExists(ctx context.Context, id int64) (bool, error)
}

// ValidatePostForm checks the text and the chosen group. The returned error
// is only set when the group lookup itself fails.
func ValidatePostForm(ctx context.Context, form PostForm, groups GroupChecker) (PostInput, FieldErrors, error) {
	errs := FieldErrors{}
	in := PostInput{Text: strings.TrimSpace(form.Text), Image: form.Image}
	if in.Text == "" {
		errs.add("text", msgRequired)
	}

	if raw := strings.TrimSpace(form.Group); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs.add("group", msgInvalidChoice)
		} else {
			ok, err := groups.GroupExists(ctx, id)
			if err != nil {
				return PostInput{}, nil, err
			}
			if !ok {
				errs.add("group", msgInvalidChoice)
			} else {
				in.GroupID = &id
			}
		}
	}

	if form.Image != nil && !form.Image.IsImage() {
		errs.add("image", msgInvalidImage)
	}

	if len(errs) > 0 {
		return PostInput{}, errs, nil
	}
	return in, nil, nil
}

func ValidateCommentForm(form CommentForm) (string, FieldErrors) {
	text := strings.TrimSpace(form.Text)
	if text == "" {
		return "", FieldErrors{"text": {msgRequired}}
	}
	return text, nil
}

func ValidateGroupForm(form GroupForm) (Group, FieldErrors) {
	errs := FieldErrors{}
	g := Group{
		Title:       strings.TrimSpace(form.Title),
		Slug:        strings.TrimSpace(form.Slug),
		Description: strings.TrimSpace(form.Description),
	}
	switch {
	case g.Title == "":
		errs.add("title", msgRequired)
	case len([]rune(g.Title)) > 200:
		errs.add("title", msgTitleTooLong)
	}
	switch {
	case g.Slug == "":
		errs.add("slug", msgRequired)
	case !slugRegex.MatchString(g.Slug):
		errs.add("slug", msgInvalidSlug)
	}
	if len(errs) > 0 {
		return Group{}, errs
	}
	return g, nil
}
