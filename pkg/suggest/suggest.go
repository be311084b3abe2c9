// Package suggest proposes an initial tooth bounding box for unreviewed
// radiographs using an Ollama vision model. Proposals are saved as
// ordinary oriented boxes; since the landmark points are still missing,
// a prelabeled image stays held-out until a reviewer completes it.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/perioscan/perioscan/internal/logging"
	"github.com/perioscan/perioscan/pkg/annotation"
	"github.com/perioscan/perioscan/pkg/imageio"
)

// boxPrompt asks the model for one normalized tooth box.
const boxPrompt = `You are a dental radiograph assistant.

Return JSON only:
{
  "label": "tooth",
  "confidence": 0.0,
  "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels), x/y is the top-left corner.
- The box should tightly include the most clearly visible single tooth.
- If no tooth is visible, return confidence 0.0 and a centered box of w=0.5, h=0.5.
- JSON only. No markdown, no code fences, no comments.`

// codeFence strips markdown fences some models wrap around JSON output.
var codeFence = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// Proposal is a parsed model response.
type Proposal struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	} `json:"box"`
}

// VisionClient is the backend surface the assistant needs: one image-in,
// text-out query.
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imageB64 string) (string, error)
}

// Options configures the assistant.
type Options struct {
	Model       string
	MaxSendDim  int
	SendQuality int
}

// Assistant drives a vision client over the store's held-out images.
type Assistant struct {
	client VisionClient
	opts   Options
	log    *logging.Logger
}

// NewAssistant creates an assistant.
func NewAssistant(client VisionClient, opts Options, log *logging.Logger) *Assistant {
	if log == nil {
		log = logging.NewNop()
	}
	if opts.MaxSendDim == 0 {
		opts.MaxSendDim = 1536
	}
	if opts.SendQuality == 0 {
		opts.SendQuality = 85
	}
	return &Assistant{client: client, opts: opts, log: log}
}

// Prelabel proposes a box for each named image that has none yet and
// saves the proposal through the store. Returns the number of records
// updated; per-image failures are logged and skipped.
func (a *Assistant) Prelabel(ctx context.Context, store *annotation.Store, files []string) (int, error) {
	updated := 0
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		src := store.ImagePath(name)
		img, err := imageio.Load(src)
		if err != nil {
			a.log.Warn("skipping undecodable image", "file", name, "error", err)
			continue
		}
		bounds := img.Bounds()
		imgW, imgH := bounds.Dx(), bounds.Dy()

		rec, err := store.Load(name, imgW, imgH)
		if err != nil {
			a.log.Warn("skipping image with unreadable annotation", "file", name, "error", err)
			continue
		}
		if len(rec.BBoxes) > 0 {
			continue
		}

		proposal, err := a.propose(ctx, img)
		if err != nil {
			a.log.Warn("box proposal failed", "file", name, "error", err)
			continue
		}
		if proposal.Confidence <= 0 || proposal.Box.W <= 0 || proposal.Box.H <= 0 {
			a.log.Debug("no usable proposal", "file", name, "confidence", proposal.Confidence)
			continue
		}

		w := proposal.Box.W * float64(imgW)
		h := proposal.Box.H * float64(imgH)
		rec.BBoxes = append(rec.BBoxes, annotation.BoundingBox{
			CX:    proposal.Box.X*float64(imgW) + w/2,
			CY:    proposal.Box.Y*float64(imgH) + h/2,
			Width: w, Height: h,
			Label: "Tooth",
		})
		if err := store.Save(rec); err != nil {
			a.log.Warn("failed to save proposal", "file", name, "error", err)
			continue
		}
		a.log.Info("box proposal saved", "file", name, "confidence", proposal.Confidence)
		updated++
	}
	return updated, nil
}

func (a *Assistant) propose(ctx context.Context, img image.Image) (*Proposal, error) {
	imgB64, err := imageio.EncodeBase64JPEG(img, a.opts.MaxSendDim, a.opts.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	raw, err := a.client.Query(ctx, a.opts.Model, boxPrompt, imgB64)
	if err != nil {
		return nil, err
	}
	return parseProposal(raw)
}

// parseProposal extracts the JSON object from a model response,
// tolerating markdown fences and surrounding prose.
func parseProposal(raw string) (*Proposal, error) {
	content := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}
	if start := strings.IndexByte(content, '{'); start > 0 {
		content = content[start:]
	}
	if end := strings.LastIndexByte(content, '}'); end >= 0 {
		content = content[:end+1]
	}

	var p Proposal
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("unparseable model response: %w", err)
	}
	return &p, nil
}
