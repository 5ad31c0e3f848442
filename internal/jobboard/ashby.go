package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

type ashbyJob struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Location         string `json:"location"`
	JobURL           string `json:"jobUrl"`
	PublishedAt      string `json:"publishedAt"`
	IsListed         bool   `json:"isListed"`
	DescriptionPlain string `json:"descriptionPlain"`
	DescriptionHTML  string `json:"descriptionHtml"`
}

type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyBoard reads the Ashby public job board API.
type AshbyBoard struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewAshbyBoard creates a board for an Ashby job board name.
func NewAshbyBoard(boardToken, companyName string, client *http.Client) *AshbyBoard {
	return &AshbyBoard{boardToken: boardToken, companyName: companyName, client: client}
}

func (b *AshbyBoard) Name() string { return "ashby" }

// Postings fetches listed jobs; unlisted ones are skipped.
func (b *AshbyBoard) Postings(ctx context.Context) ([]Posting, error) {
	url := fmt.Sprintf("%s/%s", ashbyBaseURL, b.boardToken)
	resp, err := getJSON(ctx, b.client, "ashby", b.boardToken, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ashbyResp ashbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&ashbyResp); err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", b.boardToken, err)
	}

	postings := make([]Posting, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}
		id := aj.ID
		if id == "" {
			id = aj.JobURL
		}
		description := aj.DescriptionPlain
		if description == "" {
			description = htmlToText(aj.DescriptionHTML)
		}

		p := Posting{
			ID:          id,
			Company:     b.companyName,
			Title:       aj.Title,
			Location:    aj.Location,
			URL:         aj.JobURL,
			Description: description,
		}
		if t, err := time.Parse(time.RFC3339, aj.PublishedAt); err == nil {
			p.PostedAt = &t
		}
		postings = append(postings, p)
	}
	return postings, nil
}
