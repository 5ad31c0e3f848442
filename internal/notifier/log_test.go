package notifier

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/talentmesh/internal/model"
)

func TestLogNotifier_Notify_noMatches(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(context.Background(), "empty", nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "matches=0") {
		t.Errorf("expected summary line, got %q", buf.String())
	}
}

func TestLogNotifier_Notify_linePerMatch(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	matches := []model.RankedMatch{sampleMatch("c1", 80), sampleMatch("c2", 40)}
	if err := n.Notify(context.Background(), "Backend", matches); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	out := buf.String()
	if got := strings.Count(out, "msg=match"); got != 2 {
		t.Errorf("expected 2 match lines, got %d in %q", got, out)
	}
	for _, want := range []string{"id=c1", "rank=2", "location=Berlin", "pool=org"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}
