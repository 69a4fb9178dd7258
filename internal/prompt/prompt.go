// Package prompt derives the single instruction string sent to an image
// provider from the session's prompt sources.
package prompt

import "strings"

// UpscaleInstruction replaces every other prompt field when upscaling.
const UpscaleInstruction = "Upscale this image to 4K resolution, highly detailed, sharp focus"

// ReferenceDirective is appended when only a reference image is supplied.
const ReferenceDirective = "Use the provided reference image for style, composition, and color palette."

// CompositeDirective is appended when both a base and a reference image are
// supplied. Image 1 is the subject, image 2 the background.
const CompositeDirective = `[MASTER INSTRUCTION]:
1. IMAGE 1 is the SUBJECT. IMAGE 2 is the BACKGROUND/STYLE REFERENCE.
2. COMPOSITE: Place the SUBJECT into the BACKGROUND of Image 2.
3. CRITICAL - HARMONIZATION:
   - LIGHTING: Perfectly match the direction, hardness, and color temperature of the light from Image 2 onto the Subject.
   - SHADOWS: Cast realistic shadows from the Subject onto the ground/surfaces of Image 2. Ensure contact shadows are present so the subject does not look like it is floating.
   - COLOR GRADING: Adjust the levels, curves, and color balance of the Subject to match the exact filmic look and mood of Image 2.
4. RESULT: The final image must look like a single, authentic photograph. No visible cutouts, mismatched lighting, or perspective errors. Flawless integration.`

type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceManual
	SourcePreset
)

func (k SourceKind) String() string {
	switch k {
	case SourceManual:
		return "manual"
	case SourcePreset:
		return "preset"
	default:
		return "none"
	}
}

// Source is the base prompt: typed text or a catalog preset, never both.
type Source struct {
	kind  SourceKind
	title string
	text  string
}

// Manual returns a typed-text source. Empty text yields no source at all.
func Manual(text string) Source {
	if text == "" {
		return Source{}
	}
	return Source{kind: SourceManual, text: text}
}

func Preset(title, text string) Source {
	if text == "" {
		return Source{}
	}
	return Source{kind: SourcePreset, title: title, text: text}
}

func (s Source) Kind() SourceKind { return s.kind }

// Text is the prompt text of whichever variant is active.
func (s Source) Text() string { return s.text }

func (s Source) ManualText() string {
	if s.kind != SourceManual {
		return ""
	}
	return s.text
}

func (s Source) PresetTitle() string {
	if s.kind != SourcePreset {
		return ""
	}
	return s.title
}

func (s Source) PresetText() string {
	if s.kind != SourcePreset {
		return ""
	}
	return s.text
}

// StyleLookup resolves a style id to descriptor text.
type StyleLookup interface {
	Descriptor(id string) (string, bool)
}

type Input struct {
	Source     Source
	Style      string
	Additional string
}

type Composer struct {
	styles StyleLookup
}

func NewComposer(styles StyleLookup) *Composer {
	return &Composer{styles: styles}
}

// Compose returns the effective prompt. The result may be empty.
func (c *Composer) Compose(in Input, upscale bool) string {
	if upscale {
		return UpscaleInstruction
	}

	var b strings.Builder
	b.WriteString(in.Source.Text())

	if in.Style != "" && c.styles != nil {
		if desc, ok := c.styles.Descriptor(in.Style); ok {
			b.WriteString(", ")
			b.WriteString(desc)
		}
	}

	if in.Additional != "" {
		b.WriteString(". ")
		b.WriteString(in.Additional)
	}

	return b.String()
}

// Directive appends the multi-image compositing instruction that matches the
// images present. With a base image alone the prompt is returned verbatim.
func Directive(prompt string, hasBase, hasRef bool) string {
	switch {
	case hasBase && hasRef:
		return join(prompt, " \n\n", CompositeDirective)
	case hasRef:
		return join(prompt, ". ", ReferenceDirective)
	default:
		return prompt
	}
}

func join(prompt, sep, directive string) string {
	if prompt == "" {
		return directive
	}
	return prompt + sep + directive
}
