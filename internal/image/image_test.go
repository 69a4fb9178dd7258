package image

import (
	"bytes"
	"context"
	"errors"
	stdimage "image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/manash/retouch/internal/security"
	"github.com/manash/retouch/pkg/models"
)

func testRGBA(w, h int) *stdimage.RGBA {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testRGBA(w, h)); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testRGBA(w, h), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testRGBA(w, h), nil); err != nil {
		t.Fatalf("gif.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestSaver_Save(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(dir)

	img := &models.Image{Data: []byte("fake image data"), MIMEType: "image/png"}
	path, err := s.Save(img, filepath.Join("sub", "test.png"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(dir, "sub", "test.png") {
		t.Errorf("Save() path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("saved data mismatch: got %s", string(data))
	}
}

func TestSaver_Save_GeneratedName(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(dir)
	s.now = func() time.Time { return time.UnixMilli(1736937045123) }

	path, err := s.Save(&models.Image{Data: []byte("x"), MIMEType: "image/jpeg"}, "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != "retouch-1736937045123.jpeg" {
		t.Errorf("generated name = %s", filepath.Base(path))
	}
	if filepath.Dir(path) != dir {
		t.Errorf("saved outside dir: %s", path)
	}
}

func TestSaver_Save_Errors(t *testing.T) {
	s := NewSaver(t.TempDir())

	tests := []struct {
		name    string
		img     *models.Image
		file    string
		wantErr error
	}{
		{"nil image", nil, "a.png", ErrNothingToSave},
		{"empty image", &models.Image{}, "a.png", ErrNothingToSave},
		{"traversal", &models.Image{Data: []byte("x")}, "../a.png", security.ErrPathTraversal},
		{"absolute", &models.Image{Data: []byte("x")}, "/tmp/a.png", security.ErrAbsolutePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(tt.img, tt.file)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Save() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateFilename(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	tests := []struct {
		format models.OutputFormat
		want   string
	}{
		{models.FormatPNG, "retouch-1700000000000.png"},
		{models.FormatJPEG, "retouch-1700000000000.jpeg"},
		{models.FormatWebP, "retouch-1700000000000.webp"},
	}
	for _, tt := range tests {
		if got := GenerateFilename(ts, tt.format); got != tt.want {
			t.Errorf("GenerateFilename(%s) = %s, want %s", tt.format, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     func(t *testing.T) []byte
		wantMIME string
		wantErr  error
	}{
		{"png", func(t *testing.T) []byte { return encodePNG(t, 4, 3) }, "image/png", nil},
		{"jpeg", func(t *testing.T) []byte { return encodeJPEG(t, 4, 3) }, "image/jpeg", nil},
		{"gif converted", func(t *testing.T) []byte { return encodeGIF(t, 4, 3) }, "image/png", nil},
		{"empty", func(t *testing.T) []byte { return nil }, "", ErrNotImage},
		{"text", func(t *testing.T) []byte { return []byte("hello, not an image") }, "", ErrNotImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data(t))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if img.MIMEType != tt.wantMIME {
				t.Errorf("Decode() MIMEType = %s, want %s", img.MIMEType, tt.wantMIME)
			}
			info, err := Inspect(img)
			if err != nil {
				t.Fatalf("Inspect() error = %v", err)
			}
			if info.Width != 4 || info.Height != 3 {
				t.Errorf("Inspect() = %dx%d, want 4x3", info.Width, info.Height)
			}
		})
	}
}

func TestInspect_Empty(t *testing.T) {
	if _, err := Inspect(nil); !errors.Is(err, ErrNotImage) {
		t.Errorf("Inspect(nil) error = %v", err)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, encodePNG(t, 2, 2), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := NewLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("Load() MIMEType = %s", img.MIMEType)
	}

	if _, err := NewLoader().Load(context.Background(), filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Load() of missing file should fail")
	}

	textPath := filepath.Join(dir, "notes.txt")
	os.WriteFile(textPath, []byte("just text"), 0644)
	if _, err := NewLoader().Load(context.Background(), textPath); !errors.Is(err, ErrNotImage) {
		t.Errorf("Load() of text file error = %v, want %v", err, ErrNotImage)
	}
}

func newTestLoader() *Loader {
	l := NewLoader()
	// httptest listens on loopback.
	l.validateURL = nil
	return l
}

func TestLoader_LoadURL(t *testing.T) {
	jpg := encodeJPEG(t, 5, 5)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write(jpg)
		case "/big":
			w.Write(bytes.Repeat([]byte{0}, MaxBytes+10))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	l := newTestLoader()
	ctx := context.Background()

	img, err := l.Load(ctx, server.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.MIMEType != "image/jpeg" || !bytes.Equal(img.Data, jpg) {
		t.Errorf("Load() returned %s, %d bytes", img.MIMEType, len(img.Data))
	}

	if _, err := l.Load(ctx, server.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Load() of missing URL error = %v", err)
	}

	if _, err := l.Load(ctx, server.URL+"/big"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Load() of oversized URL error = %v, want %v", err, ErrTooLarge)
	}
}

func TestLoader_RejectsPrivateURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	_, err := NewLoader().Load(context.Background(), server.URL+"/photo.png")
	if !errors.Is(err, security.ErrPrivateIP) {
		t.Errorf("Load() error = %v, want %v", err, security.ErrPrivateIP)
	}
}
