package avatar

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// PublicPrefix is the URL path avatars are served under.
const PublicPrefix = "/avatars/"

// ErrUnsupportedImage is returned for uploads that cannot be decoded as an image.
var ErrUnsupportedImage = errors.New("unsupported image")

// DefaultMaxDimension bounds the width and height of an accepted upload.
const DefaultMaxDimension = 4096

// Processor resizes uploaded avatars to a square and stores them on disk.
type Processor struct {
	dir          string
	size         int
	maxDimension int
}

// Option customises a Processor.
type Option func(*Processor)

// WithMaxDimension overrides the largest accepted source width or height.
func WithMaxDimension(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxDimension = n
		}
	}
}

// NewProcessor creates a new Processor writing into dir.
func NewProcessor(dir string, size int, opts ...Option) (*Processor, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create avatar directory: %w", err)
	}
	p := &Processor{dir: dir, size: size, maxDimension: DefaultMaxDimension}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Dir returns the directory avatars are written to.
func (p *Processor) Dir() string {
	return p.dir
}

// formatExt maps decoder names to stored extensions.
var formatExt = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
}

// Save decodes src, resizes it and writes it as <name><ext>. The returned
// value is the public URL path of the stored file. The header is checked
// before the full decode so oversized images are never allocated.
func (p *Processor) Save(name, originalFilename string, src io.Reader) (string, error) {
	var head bytes.Buffer
	cfg, format, err := image.DecodeConfig(io.TeeReader(src, &head))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > p.maxDimension || cfg.Height > p.maxDimension {
		return "", fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrUnsupportedImage, cfg.Width, cfg.Height, p.maxDimension, p.maxDimension)
	}

	img, _, err := image.Decode(io.MultiReader(&head, src))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	ext, err := storedExt(originalFilename, format)
	if err != nil {
		return "", err
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.size, p.size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	filename := filepath.Base(name) + ext
	tmp, err := os.CreateTemp(p.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp avatar: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, dst, ext); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(p.dir, filename)); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	return PublicPrefix + filename, nil
}

// storedExt keeps a known image extension from the client's filename and
// otherwise falls back to the decoded format.
func storedExt(originalFilename, format string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(originalFilename)); ext {
	case ".png", ".jpg", ".jpeg", ".gif":
		return ext, nil
	}
	ext, ok := formatExt[format]
	if !ok {
		return "", fmt.Errorf("%w: format %s", ErrUnsupportedImage, format)
	}
	return ext, nil
}

func encode(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".gif":
		return gif.Encode(w, img, nil)
	default:
		return png.Encode(w, img)
	}
}

// GravatarURL returns the default avatar for an email address.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}
