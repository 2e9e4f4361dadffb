// Package suggest asks a vision model for the label of an annotated region.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"

	"github.com/menta2k/image-labeler/pkg/client"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/types"
)

// ErrNoSuggestion is returned when the model answer holds no usable label
var ErrNoSuggestion = errors.New("model returned no label")

// DefaultPrompt asks for a single short label. %s is replaced with the
// known labels, or a note that there are none.
const DefaultPrompt = `You are labeling a region cropped from a photo.

Return JSON only:
{"label": "string", "confidence": 0.0}

RULES
- label is one or two lowercase words naming the main object in the image.
- Prefer one of the known labels when it fits: %s
- confidence is in [0,1].
- JSON only. No markdown, no code fences, no comments.`

// Suggestion is a model-proposed label
type Suggestion struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	// Known is true when Label matches an existing registry label
	Known bool `json:"known"`
}

// Options controls how the region is sent to the model
type Options struct {
	Model    string
	SendSize int
	SendQ    int
}

// Suggester crops regions and queries a vision client
type Suggester struct {
	client    client.VisionClient
	processor *processing.Processor
	options   Options
}

// New creates a Suggester
func New(client client.VisionClient, processor *processing.Processor, options Options) *Suggester {
	return &Suggester{client: client, processor: processor, options: options}
}

// Suggest proposes a label for the region c of img. Known labels are offered
// to the model and an answer matching one case-insensitively is returned in
// the registry's spelling.
func (s *Suggester) Suggest(ctx context.Context, img image.Image, c types.Coordinates, known []string) (*Suggestion, error) {
	region, err := s.processor.CropRegion(img, c)
	if err != nil {
		return nil, err
	}

	imgB64, err := s.processor.PrepareImageForModel(region, "jpg", s.options.SendSize, s.options.SendQ)
	if err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}

	raw, err := s.client.SimpleQuery(ctx, s.options.Model, buildPrompt(known), imgB64)
	if err != nil {
		return nil, err
	}

	suggestion, err := parseSuggestion(raw)
	if err != nil {
		return nil, err
	}
	matchKnown(suggestion, known)

	return suggestion, nil
}

func buildPrompt(known []string) string {
	list := "(none yet)"
	if len(known) > 0 {
		quoted := make([]string, 0, len(known))
		for _, k := range uniqueFold(known) {
			quoted = append(quoted, fmt.Sprintf("%q", k))
		}
		list = strings.Join(quoted, ", ")
	}
	return fmt.Sprintf(DefaultPrompt, list)
}

// parseSuggestion accepts strict JSON, JSON wrapped in prose or fences, or
// a bare word answer
func parseSuggestion(raw string) (*Suggestion, error) {
	cleaned := sanitizeModelJSON(raw)

	var result Suggestion
	if strings.HasPrefix(cleaned, "{") {
		if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSuggestion, err)
		}
	} else {
		result.Label = strings.Trim(strings.TrimSpace(cleaned), ".\"'")
	}

	result.Label = strings.ToLower(strings.TrimSpace(result.Label))
	if result.Label == "" || strings.ContainsAny(result.Label, "{}\n") {
		return nil, ErrNoSuggestion
	}
	result.Confidence = clamp(result.Confidence, 0, 1)

	return &result, nil
}

func matchKnown(s *Suggestion, known []string) {
	for _, k := range known {
		if strings.EqualFold(strings.TrimSpace(k), s.Label) {
			s.Label = k
			s.Known = true
			return
		}
	}
}

// uniqueFold drops case-insensitive duplicates, keeping first spellings
func uniqueFold(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reInline   = regexp.MustCompile(`(?m)//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	return strings.TrimSpace(raw)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
