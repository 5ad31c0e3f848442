// Package jobboard imports postings from public ATS job boards as job
// profiles, so organizations can search their candidate pool against them.
package jobboard

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/talentmesh/internal/document"
	"github.com/amishk599/talentmesh/internal/model"
)

// Posting is one open role on a job board, normalized across ATS vendors.
type Posting struct {
	ID          string
	Company     string
	Title       string
	Location    string
	URL         string
	Description string
	PostedAt    *time.Time
}

// Text is the job description text indexed for the posting.
func (p Posting) Text() string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Location != "" {
		b.WriteString("\nLocation: ")
		b.WriteString(p.Location)
	}
	if p.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Description)
	}
	return b.String()
}

// Board lists the open postings of one company.
type Board interface {
	Name() string
	Postings(ctx context.Context) ([]Posting, error)
}

// New returns the board for the given ATS vendor.
func New(ats, token, company string, client *http.Client) (Board, error) {
	switch ats {
	case "greenhouse":
		return NewGreenhouseBoard(token, company, client), nil
	case "lever":
		return NewLeverBoard(token, company, client), nil
	case "ashby":
		return NewAshbyBoard(token, company, client), nil
	default:
		return nil, fmt.Errorf("unsupported ATS %q", ats)
	}
}

// getJSON issues a GET and returns the response for decoding. Non-200
// responses become *model.HTTPError so the caller can honour Retry-After.
func getJSON(ctx context.Context, client *http.Client, vendor, board, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s fetch for %s: %w", vendor, board, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s fetch for %s: %w", vendor, board, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s fetch for %s: unexpected status %d", vendor, board, resp.StatusCode),
		}
	}
	return resp, nil
}

// parseRetryAfter parses a Retry-After header in seconds. Returns zero if
// absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// htmlToText converts posting HTML to markdown text. Greenhouse double-encodes
// its content, so entities are unescaped first; this is a no-op on real HTML.
func htmlToText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	text, err := document.ExtractText(document.MimeHTML, []byte(html.UnescapeString(content)))
	if err != nil {
		return ""
	}
	return text
}
