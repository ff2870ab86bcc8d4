package topics

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"shortreel/internal/fetch"
	"shortreel/internal/types"
)

// maxCandidatesPerPage caps how many headlines one page contributes.
const maxCandidatesPerPage = 20

// WebSource scrapes candidate topics from trend and news pages. Pages that
// render their headlines client-side fall back to a headless browser when
// enabled.
type WebSource struct {
	urls            []string
	opts            *fetch.Options
	browserFallback bool
	verbose         bool
}

// NewWebSource creates a source over the given pages.
func NewWebSource(urls []string, browserFallback, verbose bool) *WebSource {
	return &WebSource{
		urls:            urls,
		opts:            fetch.DefaultOptions(),
		browserFallback: browserFallback,
		verbose:         verbose,
	}
}

// FetchCandidateTopics scrapes every configured page and merges the
// headlines. A page that fails is skipped; the fetch as a whole fails only
// when no page yielded anything.
func (w *WebSource) FetchCandidateTopics(ctx context.Context) ([]types.Topic, error) {
	var all []types.Topic
	var lastErr error

	for _, pageURL := range w.urls {
		headlines, err := w.scrape(ctx, pageURL)
		if err != nil {
			lastErr = err
			continue
		}

		host := pageURL
		if parsed, err := url.Parse(pageURL); err == nil && parsed.Host != "" {
			host = parsed.Host
		}
		if len(headlines) > maxCandidatesPerPage {
			headlines = headlines[:maxCandidatesPerPage]
		}
		for _, h := range headlines {
			all = append(all, types.Topic{
				Title:    h.Text,
				Source:   host,
				URL:      h.URL,
				Keywords: keywords(h.Text),
			})
		}
	}

	if len(all) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("no topics from any source: %w", lastErr)
		}
		return nil, fmt.Errorf("no topics from any source")
	}
	return all, nil
}

func (w *WebSource) scrape(ctx context.Context, pageURL string) ([]fetch.Headline, error) {
	result, err := fetch.URL(ctx, pageURL, w.opts)
	if err != nil {
		return nil, err
	}

	headlines, err := fetch.ExtractHeadlines(result.HTML, pageURL, fetch.HeadlineSelectors())
	if err != nil {
		return nil, err
	}

	if fetch.ShouldUseBrowser(headlines) && w.browserFallback {
		html, err := fetch.BrowserSimple(ctx, pageURL, w.verbose)
		if err != nil {
			return headlines, nil // keep whatever the plain fetch found
		}
		rendered, err := fetch.ExtractHeadlines(html, pageURL, fetch.HeadlineSelectors())
		if err == nil && len(rendered) > len(headlines) {
			headlines = rendered
		}
	}
	return headlines, nil
}

func keywords(title string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,!?:;\"'()")
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}
