package posts

import (
	"time"
	"unicode/utf8"
)

const previewLength = 15

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type Group struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (g Group) String() string {
	return g.Title
}

type Post struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
	Group     *Group    `json:"group"`
	Image     string    `json:"image"`
	ImageURL  string    `json:"image_url,omitempty"`
}

func (p Post) Preview() string {
	return preview(p.Text)
}

type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	PostID    int64     `json:"post_id"`
	Author    Author    `json:"author"`
}

func (c Comment) Preview() string {
	return preview(c.Text)
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength])
}
