package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

type leverCategories struct {
	Team         string   `json:"team"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverList is one titled section of a posting ("Requirements", ...). Content
// is an HTML fragment of <li> items.
type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Lists            []leverList     `json:"lists"`
	AdditionalPlain  string          `json:"additionalPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	HostedURL        string          `json:"hostedUrl"`
}

// LeverBoard reads the Lever public postings API.
type LeverBoard struct {
	companySlug string
	companyName string
	client      *http.Client
}

// NewLeverBoard creates a board for a Lever company slug.
func NewLeverBoard(companySlug, companyName string, client *http.Client) *LeverBoard {
	return &LeverBoard{companySlug: companySlug, companyName: companyName, client: client}
}

func (b *LeverBoard) Name() string { return "lever" }

// Postings fetches every published posting.
func (b *LeverBoard) Postings(ctx context.Context) ([]Posting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, b.companySlug)
	resp, err := getJSON(ctx, b.client, "lever", b.companySlug, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var leverJobs []leverJob
	if err := json.NewDecoder(resp.Body).Decode(&leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", b.companySlug, err)
	}

	postings := make([]Posting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		p := Posting{
			ID:          lj.ID,
			Company:     b.companyName,
			Title:       lj.Text,
			Location:    location,
			URL:         lj.HostedURL,
			Description: leverDescription(lj),
		}
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt)
			p.PostedAt = &t
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func leverDescription(lj leverJob) string {
	parts := []string{strings.TrimSpace(lj.DescriptionPlain)}
	for _, l := range lj.Lists {
		body := htmlToText("<ul>" + l.Content + "</ul>")
		if body == "" {
			continue
		}
		parts = append(parts, l.Text+"\n"+body)
	}
	parts = append(parts, strings.TrimSpace(lj.AdditionalPlain))

	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
