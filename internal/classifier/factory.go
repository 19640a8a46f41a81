package classifier

import (
	"fmt"

	"newspulse/internal/model"
)

// FromConfig builds the adapter set for the configured ensemble. The
// lexicon and polarity adapters are always on; the OpenAI adapter is
// added when an API key is present.
func FromConfig(cfg model.AdapterConfig) ([]Adapter, error) {
	adapters := []Adapter{
		NewLexicon(),
		NewPolarity(),
	}

	if cfg.OpenAI.APIKey != "" {
		oa, err := NewOpenAI(cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("configure openai adapter: %w", err)
		}
		adapters = append(adapters, oa)
	}

	return adapters, nil
}
