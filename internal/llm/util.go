package llm

import "strings"

// CleanJSONBlock strips a markdown code fence from a model response. Even
// with the JSON response MIME type set, models occasionally wrap the payload
// in ```json fences; schema validation needs the bare document.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	// Drop any other language tag on the fence line ("javascript", ...).
	if idx := strings.Index(text, "\n"); idx >= 0 {
		tag := text[:idx]
		if len(tag) < 20 && !strings.ContainsAny(tag, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
