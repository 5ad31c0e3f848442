package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/profile"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeIndexer struct {
	mu   sync.Mutex
	jobs []profile.Job
	out  profile.Outcome
	err  error
}

func (f *fakeIndexer) IndexJob(_ context.Context, job profile.Job) (profile.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return f.out, f.err
}

type fakeDownloader struct {
	objects map[string][]byte
}

func (f *fakeDownloader) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []StatusUpdate
}

func (p *recordingPublisher) PublishStatus(_ context.Context, u StatusUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
	return nil
}

func (p *recordingPublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.updates))
	for i, u := range p.updates {
		out[i] = u.Status
	}
	return out
}

// fakeAcker records how each delivery was settled.
type fakeAcker struct {
	mu      sync.Mutex
	acks    int
	nacks   []bool
	rejects []bool
}

func (a *fakeAcker) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, requeue)
	return nil
}

func (a *fakeAcker) Reject(_ uint64, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejects = append(a.rejects, requeue)
	return nil
}

func body(t *testing.T, m Message) []byte {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func candidateMessage(sources ...SourceRef) Message {
	return Message{OwnerType: model.OwnerCandidate, OwnerID: "c1", OrgID: "org1", Sources: sources}
}

func TestHandle_InlineTextIndexesAndPublishes(t *testing.T) {
	idx := &fakeIndexer{out: profile.Outcome{Written: true, Profile: model.KeywordProfile{TotalKeywords: 7}}}
	pub := &recordingPublisher{}
	w := NewWorker(idx, nil, pub, time.Second, discardLogger())

	attrs := &model.ProfileAttributes{Location: "Berlin"}
	msg := candidateMessage(SourceRef{SourceType: model.SourceResume, Text: "Go and Kubernetes"})
	msg.Attributes = attrs
	require.NoError(t, w.Handle(context.Background(), body(t, msg)))

	require.Len(t, idx.jobs, 1)
	job := idx.jobs[0]
	assert.Equal(t, model.Owner{Type: model.OwnerCandidate, ID: "c1", OrgID: "org1"}, job.Owner)
	assert.Equal(t, []model.SourceText{{Source: model.SourceResume, Text: "Go and Kubernetes"}}, job.Sources)
	assert.Equal(t, "Berlin", job.Attrs.Location)

	assert.Equal(t, []string{StatusProcessing, StatusCompleted}, pub.statuses())
	assert.Equal(t, 7, pub.updates[1].Keywords)
	assert.Equal(t, "profile.candidate.c1", pub.updates[1].RoutingKey())
}

func TestHandle_ObjectSourceIsDownloadedAndConverted(t *testing.T) {
	idx := &fakeIndexer{out: profile.Outcome{Written: true}}
	dl := &fakeDownloader{objects: map[string][]byte{
		"uploads/c1/post.html": []byte("<p>Built <b>Terraform</b> modules</p>"),
	}}
	w := NewWorker(idx, dl, nil, time.Second, discardLogger())

	msg := candidateMessage(SourceRef{SourceType: model.SourceResume, ObjectKey: "uploads/c1/post.html"})
	require.NoError(t, w.Handle(context.Background(), body(t, msg)))

	require.Len(t, idx.jobs, 1)
	assert.Contains(t, idx.jobs[0].Sources[0].Text, "**Terraform**")
}

func TestHandle_DegradedAndFailedOutcomes(t *testing.T) {
	pub := &recordingPublisher{}
	idx := &fakeIndexer{out: profile.Outcome{Written: true, Failed: 1}}
	w := NewWorker(idx, nil, pub, time.Second, discardLogger())
	msg := candidateMessage(SourceRef{SourceType: model.SourceManual, Text: "x"})

	require.NoError(t, w.Handle(context.Background(), body(t, msg)))
	assert.Equal(t, StatusDegraded, pub.statuses()[1])

	idx.out = profile.Outcome{Written: false, Failed: 1}
	require.NoError(t, w.Handle(context.Background(), body(t, msg)))
	assert.Equal(t, StatusFailed, pub.statuses()[3])
}

func TestHandle_MalformedMessages(t *testing.T) {
	w := NewWorker(&fakeIndexer{}, nil, nil, time.Second, discardLogger())

	tests := map[string][]byte{
		"not json":       []byte("{"),
		"bad owner type": body(t, Message{OwnerType: "robot", OwnerID: "x", Sources: []SourceRef{{SourceType: model.SourceManual, Text: "x"}}}),
		"no sources":     body(t, candidateMessage()),
		"empty source":   body(t, candidateMessage(SourceRef{SourceType: model.SourceManual})),
		"object without storage": body(t, candidateMessage(
			SourceRef{SourceType: model.SourceResume, ObjectKey: "cv.pdf"},
		)),
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			err := w.Handle(context.Background(), b)
			assert.ErrorIs(t, err, errMalformed)
		})
	}
}

func TestHandle_IndexerFailureIsRetryable(t *testing.T) {
	w := NewWorker(&fakeIndexer{err: errors.New("db down")}, nil, nil, time.Second, discardLogger())
	msg := candidateMessage(SourceRef{SourceType: model.SourceManual, Text: "x"})

	err := w.Handle(context.Background(), body(t, msg))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errMalformed)
}

func TestConsume_SettlesDeliveries(t *testing.T) {
	idx := &fakeIndexer{out: profile.Outcome{Written: true}}
	w := NewWorker(idx, nil, nil, time.Second, discardLogger())
	acker := &fakeAcker{}

	good := body(t, candidateMessage(SourceRef{SourceType: model.SourceManual, Text: "x"}))
	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Acknowledger: acker, Body: good}
	deliveries <- amqp.Delivery{Acknowledger: acker, Body: []byte("junk")}
	close(deliveries)

	w.Consume(context.Background(), deliveries, 2)

	assert.Equal(t, 1, acker.acks)
	assert.Equal(t, []bool{false}, acker.rejects)
	assert.Empty(t, acker.nacks)
}

func TestConsume_RequeuesTransientFailureOnce(t *testing.T) {
	w := NewWorker(&fakeIndexer{err: errors.New("timeout")}, nil, nil, time.Second, discardLogger())
	acker := &fakeAcker{}
	msg := body(t, candidateMessage(SourceRef{SourceType: model.SourceManual, Text: "x"}))

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Acknowledger: acker, Body: msg}
	deliveries <- amqp.Delivery{Acknowledger: acker, Body: msg, Redelivered: true}
	close(deliveries)

	w.Consume(context.Background(), deliveries, 1)

	assert.Equal(t, []bool{true, false}, acker.nacks)
}
