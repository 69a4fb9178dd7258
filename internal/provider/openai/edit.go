package openai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/manash/retouch/pkg/models"
)

// edit sends every input image as an image[] part: the base first, the
// reference second.
func (p *Provider) edit(ctx context.Context, req *models.GenerationRequest, cap *models.ModelCapabilities) (*models.Image, error) {
	if err := cap.Validate(req); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for i, img := range req.Images() {
		if err := writeImagePart(writer, i, img); err != nil {
			return nil, err
		}
	}

	fields := []struct{ name, value string }{
		{"prompt", promptOrDefault(req.Prompt)},
		{"model", req.Model},
		{"n", "1"},
		{"size", cap.OutputSize},
		{"quality", cap.Quality},
		{"output_format", models.FormatPNG.String()},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := p.baseURL + "/images/edits"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	p.log.Debug("request", "method", http.MethodPost, "url", url, "model", req.Model, "images", len(req.Images()))

	return p.do(httpReq)
}

func writeImagePart(writer *multipart.Writer, index int, img *models.Image) error {
	format := img.Format()
	mime := img.MIMEType
	if mime == "" {
		mime = "image/" + format.String()
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="image-%d.%s"`, index+1, format))
	h.Set("Content-Type", mime)

	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
