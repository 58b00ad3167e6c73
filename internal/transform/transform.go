// Package transform maps a job configuration to the request the scraping backend expects.
package transform

import (
	"encoding/json"
	"fmt"

	"github.com/law-makers/scrapejob/pkg/models"
)

// Transform builds the backend request for cfg. Fields keep their order and are never
// filtered, so an extractor with an empty name yields a mapping keyed by "".
func Transform(cfg models.JobConfig) models.BackendRequest {
	nameSelector := make([]map[string]string, len(cfg.Fields))
	for i, f := range cfg.Fields {
		nameSelector[i] = map[string]string{f.Name: f.Selector}
	}

	return models.BackendRequest{
		URL:          cfg.URL,
		Selector:     cfg.RootSelector,
		NameSelector: nameSelector,
	}
}

// Encode returns the JSON body sent to the backend for cfg
func Encode(cfg models.JobConfig) ([]byte, error) {
	body, err := json.Marshal(Transform(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to encode backend request: %w", err)
	}
	return body, nil
}
