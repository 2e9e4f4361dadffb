package app

import (
	"fmt"

	"github.com/menta2k/image-labeler/internal/config"
	"github.com/menta2k/image-labeler/pkg/client"
	"github.com/menta2k/image-labeler/pkg/llamacpp"
	"github.com/menta2k/image-labeler/pkg/ollama"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/suggest"
)

// NewSuggester builds the label suggester for the configured backend.
// It returns nil when suggestion is disabled.
func NewSuggester(cfg config.SuggestConfig) (*suggest.Suggester, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var visionClient client.VisionClient
	var err error
	switch cfg.Backend {
	case "ollama":
		visionClient, err = ollama.NewClient(cfg.URL)
	case "llamacpp":
		visionClient, err = llamacpp.NewClient(cfg.URL)
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Backend, err)
	}

	return suggest.New(visionClient, processing.NewProcessor(), suggest.Options{
		Model:    cfg.Model,
		SendSize: cfg.SendSize,
		SendQ:    cfg.SendQ,
	}), nil
}
