// Package types defines the artifact payloads that flow through the video
// generation pipeline.
package types

// Seed is the source topic a run was created from.
type Seed struct {
	Topic  string `json:"topic"`
	Source string `json:"source,omitempty"`
	Prompt string `json:"prompt,omitempty"` // optional per-slot prompt override
}

// DialogueLine is one spoken line of the script.
type DialogueLine struct {
	Index   int    `json:"index"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Emotion string `json:"emotion,omitempty"` // neutral | excited | serious | whisper
}

// Dialogue is the structured script generated from a seed topic.
type Dialogue struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Lines       []DialogueLine `json:"lines"`
}

// LineCount returns the number of spoken lines.
func (d *Dialogue) LineCount() int {
	return len(d.Lines)
}
