package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseBoard reads the Greenhouse public boards API.
type GreenhouseBoard struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseBoard creates a board for a Greenhouse board token.
func NewGreenhouseBoard(boardToken, companyName string, client *http.Client) *GreenhouseBoard {
	return &GreenhouseBoard{boardToken: boardToken, companyName: companyName, client: client}
}

func (b *GreenhouseBoard) Name() string { return "greenhouse" }

// Postings fetches every job with its description content.
func (b *GreenhouseBoard) Postings(ctx context.Context) ([]Posting, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, b.boardToken)
	resp, err := getJSON(ctx, b.client, "greenhouse", b.boardToken, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", b.boardToken, err)
	}

	postings := make([]Posting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		p := Posting{
			ID:          fmt.Sprintf("%d", gj.ID),
			Company:     b.companyName,
			Title:       gj.Title,
			Location:    gj.Location.Name,
			URL:         gj.AbsoluteURL,
			Description: htmlToText(gj.Content),
		}
		if t, err := time.Parse(time.RFC3339, gj.UpdatedAt); err == nil {
			p.PostedAt = &t
		}
		postings = append(postings, p)
	}
	return postings, nil
}
