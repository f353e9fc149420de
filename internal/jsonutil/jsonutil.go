// Package jsonutil cleans model output before JSON parsing. Models wrap
// JSON in markdown fences or prose more often than not.
package jsonutil

import "strings"

// CleanResponse strips markdown fences and surrounding prose, returning the
// outermost JSON object found in response.
func CleanResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end != -1 && end > start {
		return response[start : end+1]
	}

	return response
}
