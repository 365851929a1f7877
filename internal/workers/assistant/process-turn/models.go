// internal/workers/assistant/process-turn/models.go
package processturn

type Input struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type Output struct {
	ResponseText string `json:"responseText"`
	Intent       string `json:"intent"`
}
