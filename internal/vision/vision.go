package vision

import (
	"context"
	"io"
	"strings"

	"potterylog/internal/domain"
)

// CaptionPrompt is the shared prompt used by caption adapters.
const CaptionPrompt = `This is a photo of a pottery piece in progress.
Identify its production stage (greenware, bisque, or final) and write a short
note describing the piece (form, surface, glaze if visible).
Respond with exactly one line, format: stage | note`

// Caption is a model-suggested stage and note for an uploaded photo.
type Caption struct {
	Stage string
	Note  string
}

// Captioner suggests a caption for a pottery photo. Implementations call an
// external vision model; a nil Captioner disables the feature.
type Captioner interface {
	Caption(ctx context.Context, r io.Reader, mimeType string) (*Caption, error)
}

// ParseCaption parses a model response in the "stage | note" format. Lines
// that do not contain a known stage are skipped; returns nil when nothing
// usable was found.
func ParseCaption(raw string) *Caption {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "|", 2)
		stage := strings.ToLower(strings.TrimSpace(parts[0]))
		if !domain.ValidStage(stage) {
			continue
		}

		c := &Caption{Stage: stage}
		if len(parts) == 2 {
			c.Note = strings.TrimSpace(parts[1])
		}
		return c
	}
	return nil
}
