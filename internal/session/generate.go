package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/manash/retouch/internal/prompt"
	"github.com/manash/retouch/pkg/models"
)

// Generation is the outcome of one Generate call.
type Generation struct {
	// Skipped is set when there was neither a prompt nor a base image. No
	// provider call was made and nothing changed.
	Skipped bool
	Image   *models.Image
	Prompt  string
	Model   string
	Tier    models.ModelTier
	Elapsed time.Duration
}

// Generate composes the effective prompt, calls the provider and, on
// success, pushes the result onto the history and consumes the additional
// prompt. A failure changes nothing except releasing the in-flight slot.
func (c *Controller) Generate(ctx context.Context, upscale bool) (*Generation, error) {
	c.mu.Lock()
	if c.st.loading {
		c.mu.Unlock()
		return nil, ErrGenerationInProgress
	}

	base := c.st.history.Current(c.st.original)
	ref := c.st.reference
	text := c.composer.Compose(prompt.Input{
		Source:     c.st.source,
		Style:      c.st.style,
		Additional: c.st.additional,
	}, upscale)

	if text == "" && base.Empty() {
		c.mu.Unlock()
		c.log.Debug("nothing to generate")
		return &Generation{Skipped: true}, nil
	}

	if !upscale {
		text = prompt.Directive(text, !base.Empty(), !ref.Empty())
	}

	req := &models.GenerationRequest{
		Prompt:    text,
		Base:      base,
		Reference: ref,
		Tier:      models.TierFor(upscale),
		Upscale4K: upscale,
	}
	projectID := c.st.projectID
	c.st.loading = true
	c.mu.Unlock()

	img, elapsed, err := c.call(ctx, req)

	c.record(ctx, projectID, req, img, elapsed, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.loading = false

	if err != nil {
		c.log.Error("generation failed",
			"model", req.Model,
			"tier", req.Tier,
			"duration", elapsed,
			"error", err)
		return nil, fmt.Errorf("generate: %w", err)
	}

	c.st.history.Push(img)
	c.st.additional = ""

	c.log.Info("generation complete",
		"model", req.Model,
		"tier", req.Tier,
		"duration", elapsed,
		"bytes", img.Size(),
		"history", c.st.history.Len())

	return &Generation{
		Image:   img,
		Prompt:  req.Prompt,
		Model:   req.Model,
		Tier:    req.Tier,
		Elapsed: elapsed,
	}, nil
}

func (c *Controller) call(ctx context.Context, req *models.GenerationRequest) (*models.Image, time.Duration, error) {
	ctx, span := c.tracer.Start(ctx, "session.generate",
		trace.WithAttributes(
			attribute.String("retouch.provider", c.provider.Name().String()),
			attribute.String("retouch.tier", req.Tier.String()),
			attribute.Bool("retouch.base_image", !req.Base.Empty()),
			attribute.Bool("retouch.reference_image", !req.Reference.Empty()),
			attribute.Int("retouch.prompt_length", len(req.Prompt)),
		))
	defer span.End()

	c.log.Info("generating",
		"provider", c.provider.Name(),
		"tier", req.Tier,
		"images", len(req.Images()))

	start := c.now()
	img, err := c.provider.Generate(ctx, req)
	elapsed := c.now().Sub(start)

	if err == nil && img.Empty() {
		err = fmt.Errorf("%s: %w", c.provider.Name(), ErrNoImage)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, elapsed, err
	}

	span.SetAttributes(
		attribute.String("retouch.model", req.Model),
		attribute.Int("retouch.output_bytes", img.Size()),
	)
	return img, elapsed, nil
}

func (c *Controller) record(ctx context.Context, projectID string, req *models.GenerationRequest, img *models.Image, elapsed time.Duration, err error) {
	if c.recorder == nil {
		return
	}
	rec := &Record{
		ID:           uuid.New().String(),
		ProjectID:    projectID,
		Provider:     c.provider.Name(),
		Model:        req.Model,
		Tier:         req.Tier,
		Prompt:       req.Prompt,
		HasBase:      !req.Base.Empty(),
		HasReference: !req.Reference.Empty(),
		Err:          err,
		Duration:     elapsed,
		OutputBytes:  img.Size(),
		CreatedAt:    c.now(),
	}
	if rerr := c.recorder.RecordGeneration(ctx, rec); rerr != nil {
		c.log.Warn("failed to record generation", "error", rerr)
	}
}
