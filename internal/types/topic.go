package types

// Topic is one candidate subject for a new run.
type Topic struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary,omitempty"`
	Source   string   `json:"source,omitempty"`
	URL      string   `json:"url,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}
