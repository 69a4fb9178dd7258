// Package session owns the editing state of one project and the operations
// that mutate it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/manash/retouch/internal/history"
	"github.com/manash/retouch/internal/prompt"
	"github.com/manash/retouch/internal/provider"
	"github.com/manash/retouch/internal/telemetry"
	"github.com/manash/retouch/pkg/models"
)

var (
	ErrGenerationInProgress = errors.New("a generation is already in progress")
	ErrNotConfirmed         = errors.New("new project not confirmed")
	ErrNoImage              = errors.New("image is empty")
)

// NewProjectPrompt is shown by the confirmation gate before a new project
// discards the current one.
const NewProjectPrompt = "Create new project? All progress will be lost."

// Confirmer is the yes/no gate consulted before destructive operations.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// Recorder receives an audit trail of projects and provider calls. Errors are
// logged and never affect the session.
type Recorder interface {
	StartProject(ctx context.Context, projectID string, at time.Time) error
	RecordGeneration(ctx context.Context, rec *Record) error
}

// Record describes one provider call.
type Record struct {
	ID           string
	ProjectID    string
	Provider     models.ProviderType
	Model        string
	Tier         models.ModelTier
	Prompt       string
	HasBase      bool
	HasReference bool
	Err          error
	Duration     time.Duration
	OutputBytes  int
	CreatedAt    time.Time
}

// Snapshot is a copy of the editing state. Images are shared, not copied;
// they are never mutated after creation.
type Snapshot struct {
	ProjectID    string
	Original     *models.Image
	Reference    *models.Image
	History      []*models.Image
	HistoryIndex int
	Source       prompt.Source
	Additional   string
	Style        string
	Rotation     int
	FlipX        bool
	Loading      bool
}

// Current is the image on screen: the selected history entry or the original.
func (s Snapshot) Current() *models.Image {
	if s.HistoryIndex >= 0 && s.HistoryIndex < len(s.History) {
		return s.History[s.HistoryIndex]
	}
	return s.Original
}

type state struct {
	projectID  string
	original   *models.Image
	reference  *models.Image
	history    *history.Store
	source     prompt.Source
	additional string
	style      string
	rotation   int
	flipX      bool
	loading    bool
}

func newState() state {
	return state{
		projectID: uuid.New().String(),
		history:   history.New(),
	}
}

// Controller is safe for concurrent use. At most one generation is in
// flight at a time.
type Controller struct {
	mu       sync.Mutex
	st       state
	provider provider.Provider
	composer *prompt.Composer
	recorder Recorder
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Controller)

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

func New(p provider.Provider, styles prompt.StyleLookup, opts ...Option) *Controller {
	c := &Controller{
		st:       newState(),
		provider: p,
		composer: prompt.NewComposer(styles),
		log:      slog.New(slog.DiscardHandler),
		tracer:   telemetry.Tracer("github.com/manash/retouch/internal/session"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start records the initial project with the recorder.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	id := c.st.projectID
	c.mu.Unlock()
	c.startProject(ctx, id)
}

func (c *Controller) startProject(ctx context.Context, id string) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.StartProject(ctx, id, c.now()); err != nil {
		c.log.Warn("failed to record project", "project", id, "error", err)
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ProjectID:    c.st.projectID,
		Original:     c.st.original,
		Reference:    c.st.reference,
		History:      c.st.history.Entries(),
		HistoryIndex: c.st.history.Index(),
		Source:       c.st.source,
		Additional:   c.st.additional,
		Style:        c.st.style,
		Rotation:     c.st.rotation,
		FlipX:        c.st.flipX,
		Loading:      c.st.loading,
	}
}

// Current returns the displayed image, or nil when nothing is loaded.
func (c *Controller) Current() *models.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.history.Current(c.st.original)
}

// SetManualPrompt makes typed text the prompt source, dropping any preset.
func (c *Controller) SetManualPrompt(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.source = prompt.Manual(text)
}

// SelectPreset makes a catalog preset the prompt source, dropping typed text.
func (c *Controller) SelectPreset(title, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.source = prompt.Preset(title, text)
}

func (c *Controller) ClearPreset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.source.Kind() == prompt.SourcePreset {
		c.st.source = prompt.Source{}
	}
}

// ToggleStyle selects id, or clears the selection when id is already selected.
// It returns the style selected afterwards.
func (c *Controller) ToggleStyle(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.style == id {
		c.st.style = ""
	} else {
		c.st.style = id
	}
	return c.st.style
}

func (c *Controller) SetAdditionalPrompt(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.additional = text
}

// Rotate adds delta degrees to the view rotation and returns the new total.
func (c *Controller) Rotate(delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.rotation += delta
	return c.st.rotation
}

func (c *Controller) ToggleFlip() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.flipX = !c.st.flipX
	return c.st.flipX
}

// UploadOriginal replaces the source image and drops the edit trail.
func (c *Controller) UploadOriginal(img *models.Image) error {
	if img.Empty() {
		return ErrNoImage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.loading {
		return ErrGenerationInProgress
	}
	c.st.original = img
	c.st.history.Clear()
	return nil
}

func (c *Controller) UploadReference(img *models.Image) error {
	if img.Empty() {
		return ErrNoImage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.reference = img
	return nil
}

func (c *Controller) ClearReference() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.reference = nil
}

// Reset drops the edit trail and the transient edit settings. The original,
// the reference and the prompt source survive.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.loading {
		return ErrGenerationInProgress
	}
	c.st.history.Clear()
	c.st.additional = ""
	c.st.rotation = 0
	c.st.flipX = false
	c.st.style = ""
	return nil
}

// NewProject asks confirm and, on yes, replaces the whole session with a
// fresh one.
func (c *Controller) NewProject(ctx context.Context, confirm Confirmer) error {
	c.mu.Lock()
	busy := c.st.loading
	c.mu.Unlock()
	if busy {
		return ErrGenerationInProgress
	}

	if confirm != nil {
		ok, err := confirm.Confirm(ctx, NewProjectPrompt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotConfirmed
		}
	}

	c.mu.Lock()
	// A generation may have started while the gate was open.
	if c.st.loading {
		c.mu.Unlock()
		return ErrGenerationInProgress
	}
	c.st = newState()
	id := c.st.projectID
	c.mu.Unlock()

	c.log.Info("new project", "project", id)
	c.startProject(ctx, id)
	return nil
}

// Undo steps back one entry. It reports whether the cursor moved.
func (c *Controller) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.history.Undo()
}

func (c *Controller) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.history.Redo()
}
