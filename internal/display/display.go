package display

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mattn/go-isatty"
	_ "golang.org/x/image/webp"

	"github.com/manash/retouch/pkg/models"
)

const (
	DefaultMaxWidth  = 1024
	DefaultMaxHeight = 768
)

var ErrNothingToShow = errors.New("no image to show")

// View is the on-screen transform of an image. The stored bytes are never
// touched; the transform only applies to what is drawn.
type View struct {
	// Rotation in degrees, clockwise. Any integer is accepted.
	Rotation int
	FlipX    bool
}

// Normalized folds Rotation into [0, 360).
func (v View) Normalized() int {
	r := v.Rotation % 360
	if r < 0 {
		r += 360
	}
	return r
}

func (v View) IsIdentity() bool {
	return v.Normalized() == 0 && !v.FlipX
}

type Displayer struct {
	out       io.Writer
	maxWidth  int
	maxHeight int
	columns   int
}

func New(out io.Writer) *Displayer {
	return &Displayer{
		out:       out,
		maxWidth:  DefaultMaxWidth,
		maxHeight: DefaultMaxHeight,
	}
}

// SetBounds limits the rendered size in pixels. Zero keeps the default.
func (d *Displayer) SetBounds(width, height int) {
	if width > 0 {
		d.maxWidth = width
	}
	if height > 0 {
		d.maxHeight = height
	}
}

// SetColumns asks the terminal to scale the image to n cells wide.
func (d *Displayer) SetColumns(n int) {
	d.columns = n
}

// Display draws img with view applied through the kitty graphics protocol.
func (d *Displayer) Display(img *models.Image, view View) error {
	if img.Empty() {
		return ErrNothingToShow
	}

	data, err := Render(img, view, d.maxWidth, d.maxHeight)
	if err != nil {
		return err
	}

	enc := NewKittyEncoder(d.out)
	enc.Columns = d.columns
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	fmt.Fprintln(d.out)
	return nil
}

// Render decodes img, mirrors it when FlipX is set, rotates it clockwise,
// shrinks it to fit maxWidth x maxHeight and returns PNG bytes.
func Render(img *models.Image, view View, maxWidth, maxHeight int) ([]byte, error) {
	src, _, err := stdimage.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	out := Transform(src, view)

	b := out.Bounds()
	if maxWidth > 0 && maxHeight > 0 && (b.Dx() > maxWidth || b.Dy() > maxHeight) {
		out = imaging.Fit(out, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// Transform applies view to src. Quarter turns are exact; other angles
// leave transparent corners.
func Transform(src stdimage.Image, view View) stdimage.Image {
	out := src
	if view.FlipX {
		out = imaging.FlipH(out)
	}

	switch r := view.Normalized(); r {
	case 0:
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	default:
		// imaging rotates counter-clockwise.
		out = imaging.Rotate(out, float64(360-r), color.Transparent)
	}
	return out
}

// IsTerminalSupported reports whether out is a terminal that understands the
// kitty graphics protocol.
func IsTerminalSupported(out io.Writer) bool {
	if f, ok := out.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return false
		}
	}
	return terminalFromEnv(os.Getenv)
}

func terminalFromEnv(getenv func(string) string) bool {
	termProgram := strings.ToLower(getenv("TERM_PROGRAM"))
	supportedPrograms := []string{"kitty", "ghostty", "iterm.app", "wezterm"}

	for _, prog := range supportedPrograms {
		if termProgram == prog {
			return true
		}
	}

	if getenv("KITTY_WINDOW_ID") != "" {
		return true
	}

	if getenv("ITERM_SESSION_ID") != "" {
		return true
	}

	term := strings.ToLower(getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}
