package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"backend-yatube/internal/db"

	"github.com/google/uuid"
)

const (
	KindImage       = "image"
	maxNameAttempts = 10
)

var ErrNoFilename = errors.New("upload has no file name")

// Upload is a file received from a form, fully read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func ReadUpload(fh *multipart.FileHeader) (Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Filename:    fh.Filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func (u Upload) IsImage() bool {
	return len(u.Data) > 0 && strings.HasPrefix(u.ContentType, "image/")
}

type Service struct {
	db   db.Querier
	root string
}

func NewService(db db.Querier, root string) *Service {
	return &Service{db: db, root: root}
}

func (s *Service) Root() string {
	return s.root
}

func (s *Service) SaveObject(ctx context.Context, userID, objectPath, kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, path, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, objectPath, kind)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Store writes up under dir, named after the uploaded file, and records it.
// When the name is taken a short random suffix is added to the stem, so an
// existing file is never replaced. The returned path is relative to the media
// root and uses forward slashes.
func (s *Service) Store(ctx context.Context, userID, dir string, up Upload) (string, error) {
	name := path.Base(strings.ReplaceAll(up.Filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "", ErrNoFilename
	}
	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(dir)), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	rel, f, err := s.createAvailable(dir, name)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(up.Data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	if _, err := s.SaveObject(ctx, userID, rel, KindImage); err != nil {
		return "", err
	}
	return rel, nil
}

// createAvailable exclusively creates dir/name, or dir/<stem>_<suffix><ext>
// when that name already exists.
func (s *Service) createAvailable(dir, name string) (string, *os.File, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		rel := path.Join(dir, candidate)
		full := filepath.Join(s.root, filepath.FromSlash(rel))
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return rel, f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", nil, fmt.Errorf("create media file: %w", err)
		}
		candidate = stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:7] + ext
	}
	return "", nil, fmt.Errorf("create media file: no free name for %q", name)
}

// URL is the public address of a stored object.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + rel
}
