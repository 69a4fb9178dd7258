// Package image moves image bytes between the session and the outside
// world: files, URLs and saved downloads.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/manash/retouch/internal/security"
	"github.com/manash/retouch/pkg/models"
)

const (
	// MaxBytes caps uploads and downloads.
	MaxBytes = 20 << 20

	defaultTimeout = 60 * time.Second
)

var (
	ErrNotImage = errors.New("not a supported image")
	ErrTooLarge = errors.New("image exceeds size limit")
)

// Info describes a decoded image header.
type Info struct {
	Width    int
	Height   int
	Format   string
	MIMEType string
	Bytes    int
}

// Loader reads images from local paths and http(s) URLs.
type Loader struct {
	httpClient  *http.Client
	validateURL func(ctx context.Context, rawURL string) error
}

func NewLoader() *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		validateURL: security.ValidateImageURL,
	}
}

// Load reads src and returns it ready for a provider. Formats providers
// do not accept are converted to PNG.
func (l *Loader) Load(ctx context.Context, src string) (*models.Image, error) {
	var data []byte
	var err error

	if security.IsURL(src) {
		data, err = l.download(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("failed to download image: %w", err)
		}
	} else {
		data, err = readFile(src)
		if err != nil {
			return nil, err
		}
	}

	return Decode(data)
}

func readFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if fi.Size() > MaxBytes {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (l *Loader) download(ctx context.Context, rawURL string) ([]byte, error) {
	if l.validateURL != nil {
		if err := l.validateURL(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Decode checks that data is a png, jpeg, gif or webp image. GIFs are
// re-encoded as PNG.
func Decode(data []byte) (*models.Image, error) {
	if len(data) == 0 {
		return nil, ErrNotImage
	}
	_, format, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	switch format {
	case "png", "jpeg", "webp":
		return models.NewImage(data, "image/"+format), nil
	case "gif":
		return toPNG(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotImage, format)
	}
}

func toPNG(data []byte) (*models.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return models.NewImage(buf.Bytes(), "image/png"), nil
}

// Inspect decodes the header of img.
func Inspect(img *models.Image) (Info, error) {
	if img.Empty() {
		return Info{}, ErrNotImage
	}
	cfg, format, err := stdimage.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return Info{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		MIMEType: img.MIMEType,
		Bytes:    img.Size(),
	}, nil
}
