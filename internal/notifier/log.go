package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/talentmesh/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes ranked matches to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each match via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per match with rank, score, band and common keywords.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, title string, matches []model.RankedMatch) error {
	n.logger.Info("search results", "title", title, "matches", len(matches))
	for i, m := range matches {
		args := []any{
			"rank", i + 1,
			"id", m.ID,
			"score", m.Result.Score,
			"band", m.Band,
			"common", keywordTexts(m.Result.CommonKeywords, 5),
		}
		if m.Source != "" {
			args = append(args, "pool", m.Source)
		}
		if m.Attrs != nil && m.Attrs.Location != "" {
			args = append(args, "location", m.Attrs.Location)
		}
		n.logger.Info("match", args...)
	}
	return nil
}

// keywordTexts returns up to limit keyword texts.
func keywordTexts(kws []model.Keyword, limit int) []string {
	if len(kws) > limit {
		kws = kws[:limit]
	}
	out := make([]string, len(kws))
	for i, k := range kws {
		out[i] = k.Text
	}
	return out
}
