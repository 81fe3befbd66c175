package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend-yatube/internal/db"
	"backend-yatube/internal/paginator"
	"backend-yatube/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyText = errors.New("text must not be empty")
	ErrSlugTaken = errors.New("group with this slug already exists")
)

const postSelect = `
	SELECT p.id, p.text, p.created_at, p.image,
	       u.id, u.username, u.full_name,
	       COALESCE(g.id, 0), COALESCE(g.title, ''), COALESCE(g.slug, ''), COALESCE(g.description, '')
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN groups g ON g.id = p.group_id`

const postOrder = ` ORDER BY p.created_at DESC, p.text`

type Service struct {
	db      db.Querier
	perPage int
}

func NewService(db db.Querier, perPage int) *Service {
	if perPage < 1 {
		perPage = 10
	}
	return &Service{db: db, perPage: perPage}
}

// filter narrows the post listing; where is appended to the FROM clause
// and references its args as $1..$n.
type filter struct {
	where string
	args  []any
}

func (s *Service) Index(ctx context.Context, page string) (paginator.Page[Post], error) {
	return s.listPosts(ctx, filter{}, page)
}

func (s *Service) GroupPosts(ctx context.Context, groupID int64, page string) (paginator.Page[Post], error) {
	return s.listPosts(ctx, filter{where: " WHERE p.group_id = $1", args: []any{groupID}}, page)
}

func (s *Service) AuthorPosts(ctx context.Context, authorID, page string) (paginator.Page[Post], error) {
	return s.listPosts(ctx, filter{where: " WHERE p.author_id = $1", args: []any{authorID}}, page)
}

// FollowFeed lists posts by the authors userID follows.
func (s *Service) FollowFeed(ctx context.Context, userID, page string) (paginator.Page[Post], error) {
	return s.listPosts(ctx, filter{
		where: " WHERE p.author_id IN (SELECT author_id FROM follows WHERE user_id = $1)",
		args:  []any{userID},
	}, page)
}

func (s *Service) listPosts(ctx context.Context, f filter, page string) (paginator.Page[Post], error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts p`+f.where, f.args...).Scan(&count); err != nil {
		return paginator.Page[Post]{}, fmt.Errorf("count posts: %w", err)
	}

	p := paginator.New(s.perPage, count)
	number := p.Resolve(page)
	offset, limit := p.Bounds(number)
	if limit == 0 {
		return paginator.Build[Post](p, number, nil), nil
	}

	n := len(f.args)
	query := fmt.Sprintf("%s%s%s LIMIT $%d OFFSET $%d", postSelect, f.where, postOrder, n+1, n+2)
	args := append(append([]any{}, f.args...), limit, offset)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return paginator.Page[Post]{}, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return paginator.Page[Post]{}, err
		}
		items = append(items, post)
	}
	if err := rows.Err(); err != nil {
		return paginator.Page[Post]{}, err
	}
	return paginator.Build(p, number, items), nil
}

func (s *Service) Post(ctx context.Context, id int64) (Post, error) {
	post, err := scanPost(s.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return post, err
}

func (s *Service) CreatePost(ctx context.Context, authorID string, in PostInput, image string) (Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Post{}, ErrEmptyText
	}
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO posts (text, author_id, group_id, image)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, text, authorID, in.GroupID, image).Scan(&id)
	if err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	return s.Post(ctx, id)
}

// UpdatePost replaces text and group. An empty image keeps the stored one.
func (s *Service) UpdatePost(ctx context.Context, id int64, in PostInput, image string) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return ErrEmptyText
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE posts
		SET text = $1, group_id = $2, image = COALESCE(NULLIF($3, ''), image)
		WHERE id = $4
	`, text, in.GroupID, image, id)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Comments(ctx context.Context, postID int64) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.text, c.created_at, c.post_id, u.id, u.username, u.full_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at, c.id
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.CreatedAt, &c.PostID, &c.Author.ID, &c.Author.Username, &c.Author.FullName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Service) AddComment(ctx context.Context, postID int64, authorID, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyText
	}
	c := Comment{Text: text, PostID: postID, Author: Author{ID: authorID}}
	err := s.db.QueryRow(ctx, `
		INSERT INTO comments (text, post_id, author_id)
		VALUES ($1,$2,$3)
		RETURNING id, created_at
	`, text, postID, authorID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return c, nil
}

func (s *Service) AuthorByUsername(ctx context.Context, username string) (Author, error) {
	var a Author
	err := s.db.QueryRow(ctx, `
		SELECT id, username, full_name FROM users WHERE username = $1
	`, username).Scan(&a.ID, &a.Username, &a.FullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Author{}, ErrNotFound
	}
	return a, err
}

// Follow records that userID follows authorID. Repeating it is a no-op.
func (s *Service) Follow(ctx context.Context, userID, authorID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO follows (user_id, author_id)
		VALUES ($1,$2)
		ON CONFLICT (user_id, author_id) DO NOTHING
	`, userID, authorID)
	return err
}

func (s *Service) Unfollow(ctx context.Context, userID, authorID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM follows WHERE user_id = $1 AND author_id = $2
	`, userID, authorID)
	return err
}

func (s *Service) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)
	`, userID, authorID).Scan(&ok)
	return ok, err
}

func (s *Service) Groups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, slug, description FROM groups ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Service) GroupBySlug(ctx context.Context, slug string) (Group, error) {
	var g Group
	err := s.db.QueryRow(ctx, `
		SELECT id, title, slug, description FROM groups WHERE slug = $1
	`, slug).Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	return g, err
}

func (s *Service) GroupExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (s *Service) CreateGroup(ctx context.Context, g Group) (Group, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO groups (title, slug, description)
		VALUES ($1,$2,$3)
		RETURNING id
	`, g.Title, g.Slug, g.Description).Scan(&g.ID)
	if err != nil {
		return Group{}, groupWriteError(err)
	}
	return g, nil
}

func (s *Service) UpdateGroup(ctx context.Context, g Group) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE groups SET title = $1, slug = $2, description = $3 WHERE id = $4
	`, g.Title, g.Slug, g.Description, g.ID)
	if err != nil {
		return groupWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGroup removes the group; its posts stay and lose their group.
func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func groupWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlugTaken
	}
	return fmt.Errorf("write group: %w", err)
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	var g Group
	if err := row.Scan(
		&p.ID, &p.Text, &p.CreatedAt, &p.Image,
		&p.Author.ID, &p.Author.Username, &p.Author.FullName,
		&g.ID, &g.Title, &g.Slug, &g.Description,
	); err != nil {
		return Post{}, err
	}
	if g.ID != 0 {
		p.Group = &g
	}
	p.ImageURL = storage.URL(p.Image)
	return p, nil
}
