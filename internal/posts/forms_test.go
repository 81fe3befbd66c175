package posts

import (
	"context"
	"errors"
	"testing"

	"backend-yatube/internal/storage"
)

type groupSet map[int64]bool

func (g groupSet) GroupExists(_ context.Context, id int64) (bool, error) {
	return g[id], nil
}

type failingGroups struct{}

func (failingGroups) GroupExists(context.Context, int64) (bool, error) {
	return false, errors.New("db down")
}

func TestValidatePostForm(t *testing.T) {
	groups := groupSet{1: true}

	in, errs, err := ValidatePostForm(context.Background(), PostForm{Text: "  hello  ", Group: "1"}, groups)
	if err != nil || errs != nil {
		t.Fatalf("expected valid form: %v %v", errs, err)
	}
	if in.Text != "hello" || in.GroupID == nil || *in.GroupID != 1 {
		t.Fatalf("unexpected input %+v", in)
	}

	in, errs, _ = ValidatePostForm(context.Background(), PostForm{Text: "hello"}, groups)
	if errs != nil || in.GroupID != nil {
		t.Fatalf("empty group means no group")
	}
}

func TestValidatePostFormErrors(t *testing.T) {
	groups := groupSet{1: true}
	cases := []struct {
		name  string
		form  PostForm
		field string
		msg   string
	}{
		{"empty text", PostForm{Text: ""}, "text", msgRequired},
		{"whitespace text", PostForm{Text: " \n\t "}, "text", msgRequired},
		{"unknown group", PostForm{Text: "x", Group: "7"}, "group", msgInvalidChoice},
		{"non-numeric group", PostForm{Text: "x", Group: "cats"}, "group", msgInvalidChoice},
		{"not an image", PostForm{Text: "x", Image: &storage.Upload{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}}, "image", msgInvalidImage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs, err := ValidatePostForm(context.Background(), tc.form, groups)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(errs[tc.field]) != 1 || errs[tc.field][0] != tc.msg {
				t.Fatalf("expected %q on %s, got %v", tc.msg, tc.field, errs)
			}
		})
	}
}

func TestValidatePostFormLookupError(t *testing.T) {
	if _, _, err := ValidatePostForm(context.Background(), PostForm{Text: "x", Group: "1"}, failingGroups{}); err == nil {
		t.Fatalf("expected lookup error")
	}
}

func TestValidateCommentForm(t *testing.T) {
	if text, errs := ValidateCommentForm(CommentForm{Text: " nice "}); errs != nil || text != "nice" {
		t.Fatalf("expected valid comment, got %q %v", text, errs)
	}
	if _, errs := ValidateCommentForm(CommentForm{Text: "   "}); errs["text"][0] != msgRequired {
		t.Fatalf("expected required error, got %v", errs)
	}
}

func TestValidateGroupForm(t *testing.T) {
	g, errs := ValidateGroupForm(GroupForm{Title: "Cats", Slug: "cats_1", Description: "about cats"})
	if errs != nil || g.Slug != "cats_1" {
		t.Fatalf("expected valid group: %v", errs)
	}

	_, errs = ValidateGroupForm(GroupForm{Title: "", Slug: "bad slug"})
	if errs["title"][0] != msgRequired || errs["slug"][0] != msgInvalidSlug {
		t.Fatalf("unexpected errors %v", errs)
	}

	long := make([]rune, 201)
	for i := range long {
		long[i] = 'a'
	}
	_, errs = ValidateGroupForm(GroupForm{Title: string(long), Slug: "ok"})
	if errs["title"][0] != msgTitleTooLong {
		t.Fatalf("expected length error, got %v", errs)
	}
}
