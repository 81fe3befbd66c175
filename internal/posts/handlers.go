package posts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"backend-yatube/internal/auth"
	"backend-yatube/internal/cache"
	"backend-yatube/internal/metrics"
	"backend-yatube/internal/paginator"
	"backend-yatube/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const (
	indexCacheKey   = "index_page"
	maxCachedPage   = 1000
	defaultCacheTTL = 20 * time.Second
	mediaDir        = "posts"
)

// Publisher announces new posts by an author to live watchers.
type Publisher interface {
	Publish(author string, payload []byte)
}

type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Media    *storage.Service
	Events   Publisher
}

type handlers struct {
	svc  *Service
	opts Options
}

func RegisterRoutes(r fiber.Router, svc *Service, requireAuth fiber.Handler, opts Options) {
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	h := &handlers{svc: svc, opts: opts}

	r.Get("/", h.index)
	r.Get("/group/:slug/", h.groupPosts)
	r.Get("/profile/:username/", h.profile)
	r.Get("/posts/:id/", h.postDetail)

	r.Get("/create/", requireAuth, h.createForm)
	r.Post("/create/", requireAuth, h.createPost)
	r.Get("/posts/:id/edit/", requireAuth, h.editPost)
	r.Post("/posts/:id/edit/", requireAuth, h.editPost)
	r.Post("/posts/:id/comment/", requireAuth, h.addComment)

	r.Get("/follow/", requireAuth, h.followFeed)
	r.Get("/profile/:username/follow/", requireAuth, h.follow)
	r.Get("/profile/:username/unfollow/", requireAuth, h.unfollow)
}

func (h *handlers) index(c *fiber.Ctx) error {
	page := c.Query("page")
	render := func() ([]byte, error) {
		posts, err := h.svc.Index(c.Context(), page)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fiber.Map{"page_obj": posts})
	}

	var (
		body []byte
		hit  bool
		err  error
	)
	if key, ok := indexKey(page); ok {
		body, hit, err = cache.Fetch(c.Context(), h.opts.Cache, key, h.opts.CacheTTL, render)
	} else {
		body, err = render()
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if hit {
		h.opts.Metrics.CacheHit()
	} else {
		h.opts.Metrics.CacheMiss()
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// indexKey names the cache entry for a raw page value. Every page number
// below 1 resolves to the last page and shares one entry; numbers above
// maxCachedPage are served uncached.
func indexKey(page string) (string, bool) {
	n := paginator.Normalize(page)
	switch {
	case n < 1:
		return indexCacheKey + ":last", true
	case n > maxCachedPage:
		return "", false
	}
	return fmt.Sprintf("%s:%d", indexCacheKey, n), true
}

func (h *handlers) groupPosts(c *fiber.Ctx) error {
	group, err := h.svc.GroupBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return serviceError(err)
	}
	posts, err := h.svc.GroupPosts(c.Context(), group.ID, c.Query("page"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"group": group, "page_obj": posts})
}

func (h *handlers) profile(c *fiber.Ctx) error {
	author, err := h.svc.AuthorByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return serviceError(err)
	}
	posts, err := h.svc.AuthorPosts(c.Context(), author.ID, c.Query("page"))
	if err != nil {
		return serviceError(err)
	}

	following := false
	if viewer, ok := auth.ViewerFrom(c); ok {
		following, err = h.svc.IsFollowing(c.Context(), viewer.ID, author.ID)
		if err != nil {
			return serviceError(err)
		}
	}
	return c.JSON(fiber.Map{"author": author, "page_obj": posts, "following": following})
}

func (h *handlers) postDetail(c *fiber.Ctx) error {
	post, err := h.postFromParams(c)
	if err != nil {
		return err
	}
	comments, err := h.svc.Comments(c.Context(), post.ID)
	if err != nil {
		return serviceError(err)
	}

	var form *CommentForm
	if _, ok := auth.ViewerFrom(c); ok {
		form = &CommentForm{}
	}
	return c.JSON(fiber.Map{"post": post, "comments": comments, "form": form})
}

func (h *handlers) createForm(c *fiber.Ctx) error {
	return h.renderPostForm(c, PostForm{}, nil, nil)
}

func (h *handlers) createPost(c *fiber.Ctx) error {
	viewer, _ := auth.ViewerFrom(c)
	form, err := parsePostForm(c)
	if err != nil {
		return err
	}
	in, errs, err := ValidatePostForm(c.Context(), form, h.svc)
	if err != nil {
		return serviceError(err)
	}
	if errs != nil {
		return h.renderPostForm(c, form, errs, nil)
	}

	image, err := h.storeImage(c, viewer.ID, in.Image)
	if err != nil {
		return err
	}
	post, err := h.svc.CreatePost(c.Context(), viewer.ID, in, image)
	if err != nil {
		return serviceError(err)
	}
	h.opts.Metrics.PostsCreated.Inc()
	h.announce(post)
	return c.Redirect(profileURL(viewer.Username), fiber.StatusFound)
}

// editPost serves both the form and the submission. Anyone but the author
// is sent back to the post without changes.
func (h *handlers) editPost(c *fiber.Ctx) error {
	post, err := h.postFromParams(c)
	if err != nil {
		return err
	}
	viewer, _ := auth.ViewerFrom(c)
	if post.Author.ID != viewer.ID {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	if c.Method() == fiber.MethodGet {
		form := PostForm{Text: post.Text}
		if post.Group != nil {
			form.Group = strconv.FormatInt(post.Group.ID, 10)
		}
		return h.renderPostForm(c, form, nil, &post)
	}

	form, err := parsePostForm(c)
	if err != nil {
		return err
	}
	in, errs, err := ValidatePostForm(c.Context(), form, h.svc)
	if err != nil {
		return serviceError(err)
	}
	if errs != nil {
		return h.renderPostForm(c, form, errs, &post)
	}

	image, err := h.storeImage(c, viewer.ID, in.Image)
	if err != nil {
		return err
	}
	if err := h.svc.UpdatePost(c.Context(), post.ID, in, image); err != nil {
		return serviceError(err)
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// addComment always ends on the post page; an invalid comment is dropped
// without looking the post up.
func (h *handlers) addComment(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "post not found")
	}
	viewer, _ := auth.ViewerFrom(c)

	var form CommentForm
	_ = c.BodyParser(&form)
	text, errs := ValidateCommentForm(form)
	if errs != nil {
		return c.Redirect(postURL(id), fiber.StatusFound)
	}
	post, err := h.postFromParams(c)
	if err != nil {
		return err
	}
	if _, err := h.svc.AddComment(c.Context(), post.ID, viewer.ID, text); err != nil {
		return serviceError(err)
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

func (h *handlers) followFeed(c *fiber.Ctx) error {
	viewer, _ := auth.ViewerFrom(c)
	posts, err := h.svc.FollowFeed(c.Context(), viewer.ID, c.Query("page"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"page_obj": posts})
}

func (h *handlers) follow(c *fiber.Ctx) error {
	viewer, _ := auth.ViewerFrom(c)
	author, err := h.svc.AuthorByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return serviceError(err)
	}
	if author.ID != viewer.ID {
		if err := h.svc.Follow(c.Context(), viewer.ID, author.ID); err != nil {
			return serviceError(err)
		}
		h.opts.Metrics.Follows.WithLabelValues("follow").Inc()
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

func (h *handlers) unfollow(c *fiber.Ctx) error {
	viewer, _ := auth.ViewerFrom(c)
	author, err := h.svc.AuthorByUsername(c.Context(), c.Params("username"))
	if err != nil {
		return serviceError(err)
	}
	if err := h.svc.Unfollow(c.Context(), viewer.ID, author.ID); err != nil {
		return serviceError(err)
	}
	h.opts.Metrics.Follows.WithLabelValues("unfollow").Inc()
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

func (h *handlers) renderPostForm(c *fiber.Ctx, form PostForm, errs FieldErrors, post *Post) error {
	groups, err := h.svc.Groups(c.Context())
	if err != nil {
		return serviceError(err)
	}
	if errs == nil {
		errs = FieldErrors{}
	}
	res := fiber.Map{"form": form, "errors": errs, "groups": groups, "is_edit": post != nil}
	if post != nil {
		res["post"] = post
	}
	return c.JSON(res)
}

func (h *handlers) postFromParams(c *fiber.Ctx) (Post, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return Post{}, fiber.NewError(fiber.StatusNotFound, "post not found")
	}
	post, err := h.svc.Post(c.Context(), id)
	if err != nil {
		return Post{}, serviceError(err)
	}
	return post, nil
}

func (h *handlers) storeImage(c *fiber.Ctx, userID string, up *storage.Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	if h.opts.Media == nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "media storage not configured")
	}
	path, err := h.opts.Media.Store(c.Context(), userID, mediaDir, *up)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return path, nil
}

func (h *handlers) announce(post Post) {
	if h.opts.Events == nil {
		return
	}
	payload, err := json.Marshal(fiber.Map{"type": "post.created", "post": post})
	if err != nil {
		slog.Error("encode post event", "post", post.ID, "err", err)
		return
	}
	h.opts.Events.Publish(post.Author.Username, payload)
}

func parsePostForm(c *fiber.Ctx) (PostForm, error) {
	var form PostForm
	_ = c.BodyParser(&form)

	fh, err := c.FormFile("image")
	if err != nil {
		return form, nil
	}
	up, err := storage.ReadUpload(fh)
	if err != nil {
		return PostForm{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if up.Filename != "" || len(up.Data) > 0 {
		form.Image = &up
	}
	return form, nil
}

func serviceError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if errors.Is(err, ErrEmptyText) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10) + "/"
}
