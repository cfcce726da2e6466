package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/models"
)

// Category is the top-level directory an upload is filed under.
type Category string

const (
	Avatars            Category = "avatars"
	RoomMedia          Category = "room_media"
	MessageAttachments Category = "message_attachments"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

var ErrEmptyUpload = errors.New("empty upload")

// Stored describes a saved file. Path is relative to the media root and is
// what gets persisted on the models.
type Stored struct {
	Path string
	Name string
	Size int64
	MIME string
	Type models.AttachmentType
}

// Local keeps uploads on the local filesystem under
// <root>/<category>/<YYYY>/<MM>/<uuid><ext>.
type Local struct {
	root      string
	urlPrefix string
	now       func() time.Time
}

func NewLocal(root, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root %s: %w", root, err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Local{root: root, urlPrefix: urlPrefix, now: time.Now}, nil
}

// Root is the directory served under the URL prefix.
func (l *Local) Root() string {
	return l.root
}

// Save writes r as a new file in category. filename only contributes its
// extension and the display name.
func (l *Local) Save(category Category, filename string, r io.Reader) (*Stored, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyUpload
	}
	head = head[:n]
	mime := mimetype.Detect(head)

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = mime.Extension()
	}

	now := l.now()
	rel := path.Join(string(category), now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
	full := filepath.Join(l.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", rel, err)
	}
	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), r))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return nil, fmt.Errorf("failed to save %s: %w", rel, err)
	}

	logger.Debug().Str("path", rel).Str("mime", mime.String()).Int64("size", written).Msg("Upload stored")
	return &Stored{
		Path: rel,
		Name: filepath.Base(filename),
		Size: written,
		MIME: mime.String(),
		Type: Classify(mime.String()),
	}, nil
}

// SaveUpload stores a multipart file part.
func (l *Local) SaveUpload(category Category, fh *multipart.FileHeader) (*Stored, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return l.Save(category, fh.Filename, f)
}

// Delete removes a stored file. Missing files and the default avatar are
// left alone.
func (l *Local) Delete(rel string) error {
	if rel == "" || rel == models.DefaultAvatar {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if clean == "" {
		return nil
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", rel, err)
	}
	return nil
}

// URL maps a stored path to where it is served. Empty paths have no URL.
func (l *Local) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return l.urlPrefix + strings.TrimPrefix(rel, "/")
}

// Classify buckets a MIME type into an attachment type.
func Classify(mime string) models.AttachmentType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return models.AttachmentImage
	case strings.HasPrefix(mime, "video/"):
		return models.AttachmentVideo
	case strings.HasPrefix(mime, "audio/"):
		return models.AttachmentAudio
	default:
		return models.AttachmentDocument
	}
}
