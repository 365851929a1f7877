// pkg/registry/schema.go
package registry

import (
	"encoding/json"
	"fmt"

	"raphael-assistant/internal/common/validation"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one job type the assistant can serve from a workflow.
type Activity struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Version      string                 `json:"version"`
	TaskType     string                 `json:"taskType"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout"`
	Retries      int                    `json:"retries"`
}

// InputValidator compiles the activity's input schema.
func (a *Activity) InputValidator() (*validation.Schema, error) {
	return compile(a.ID, a.InputSchema)
}

// OutputValidator compiles the activity's output schema.
func (a *Activity) OutputValidator() (*validation.Schema, error) {
	return compile(a.ID, a.OutputSchema)
}

func compile(id string, schema map[string]interface{}) (*validation.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("activity %s: %w", id, err)
	}
	s, err := validation.NewSchema(string(raw))
	if err != nil {
		return nil, fmt.Errorf("activity %s: %w", id, err)
	}
	return s, nil
}
