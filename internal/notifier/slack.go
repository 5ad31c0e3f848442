package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/talentmesh/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

const defaultTopN = 10

// SlackNotifier posts a digest of ranked matches to a Slack channel via
// Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	topN       int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts the top topN matches as one
// Block Kit message. topN <= 0 uses 10.
func NewSlackNotifier(webhookURL string, topN int, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	if topN <= 0 {
		topN = defaultTopN
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		topN:       topN,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one digest message. An empty match list sends nothing.
func (s *SlackNotifier) Notify(ctx context.Context, title string, matches []model.RankedMatch) error {
	if len(matches) == 0 {
		return nil
	}

	body, err := json.Marshal(buildPayload(title, matches, s.topN))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", retryAfter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(retryAfter) * time.Second):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack digest sent", "title", title, "matches", len(matches), "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack digest sent", "title", title, "matches", len(matches))
	return nil
}

// post sends body and returns the status code and the Retry-After seconds
// (at least 1).
func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("creating slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, secs, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample digest to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	sample := model.RankedMatch{
		ID:     "test-001",
		Source: model.PoolPublic,
		Band:   model.BandGreat,
		Attrs:  &model.ProfileAttributes{Location: "Remote"},
		Result: model.CompatibilityResult{
			Score:       72.5,
			TotalCommon: 3,
			CommonKeywords: []model.Keyword{
				{Text: "go", Weight: 1},
				{Text: "kubernetes", Weight: 1},
				{Text: "postgresql", Weight: 0.9},
			},
		},
	}
	return n.Notify(ctx, "TalentMesh test notification", []model.RankedMatch{sample})
}

func buildPayload(title string, matches []model.RankedMatch, topN int) slackPayload {
	shown := matches
	if len(shown) > topN {
		shown = shown[:topN]
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🎯 " + title},
		},
	}

	for i, m := range shown {
		location := "n/a"
		if m.Attrs != nil && m.Attrs.Location != "" {
			location = m.Attrs.Location
		}
		common := strings.Join(keywordTexts(m.Result.CommonKeywords, 5), ", ")
		if common == "" {
			common = "none"
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*#%d %s*\n%.1f (%s)", i+1, m.ID, m.Result.Score, m.Band)},
				{Type: "mrkdwn", Text: "*Location:*\n" + location},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Common (%d):*\n%s", m.Result.TotalCommon, common)},
			},
		})
	}

	if rest := len(matches) - len(shown); rest > 0 {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("…and %d more", rest)}},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{
		Text:   fmt.Sprintf("%s: %d matches", title, len(matches)),
		Blocks: blocks,
	}
}
