package usecase

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/dishcast/dishcast/domain"
	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
	"github.com/dishcast/dishcast/internal/audio"
)

type memoryStore struct {
	saved   []*entities.ContentDraft
	saveErr error
}

func (m *memoryStore) Save(_ context.Context, draft *entities.ContentDraft) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved = append(m.saved, draft)
	return draft.DraftID, nil
}

func (m *memoryStore) ListByUser(_ context.Context, userID string) ([]*entities.ContentDraft, error) {
	var drafts []*entities.ContentDraft
	for _, d := range m.saved {
		if d.UserID == userID {
			drafts = append(drafts, d)
		}
	}
	return drafts, nil
}

type memoryUsage struct {
	metric string
	amount float64
	err    error
}

func (m *memoryUsage) Track(_ context.Context, _, metric string, amount float64) error {
	if m.err != nil {
		return m.err
	}
	m.metric = metric
	m.amount = amount
	return nil
}

type recordingDispatcher struct {
	requests []repositories.ApprovalRequest
	err      error
}

func (d *recordingDispatcher) Send(_ context.Context, req repositories.ApprovalRequest) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.requests = append(d.requests, req)
	return "SM-" + req.DraftID, nil
}

type fixedSTT struct {
	text string
	err  error
}

func (f *fixedSTT) Transcribe(_ context.Context, _ []byte, _ repositories.AudioConfig) (*entities.TranscriptionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entities.TranscriptionResult{Text: f.text, Confidence: 0.92}, nil
}

type fixedGenerator struct {
	reply string
}

func (g *fixedGenerator) Generate(_ context.Context, _ repositories.Prompt) (string, error) {
	return g.reply, nil
}

// memoChunk renders half a second of 16kHz mono tone, enough to clear the
// minimum file size.
func memoChunk() entities.AudioChunk {
	const samples = 8000
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(0.4 * 32767 * math.Sin(2*math.Pi*float64(i)/80))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(v))
	}
	return entities.AudioChunk{Data: pcm}
}

type pipelineFixture struct {
	service    *PipelineService
	store      *memoryStore
	usage      *memoryUsage
	dispatcher *recordingDispatcher
}

func newPipelineFixture(t *testing.T, stt repositories.SpeechToText, generator repositories.TextGenerator) *pipelineFixture {
	logger := zaptest.NewLogger(t)

	transcription := NewTranscriptionService(stt, logger)
	transcription.sleep = func(d time.Duration) {}

	content := NewContentService(generator, logger)
	content.jitter = func() float64 { return 0 }

	store := &memoryStore{}
	usage := &memoryUsage{}
	dispatcher := &recordingDispatcher{}

	service := NewPipelineService(
		audio.NewPostProcessor(logger),
		transcription,
		content,
		NewContentValidator(),
		store,
		usage,
		dispatcher,
		logger,
	)

	return &pipelineFixture{service: service, store: store, usage: usage, dispatcher: dispatcher}
}

func pipelineRequest() PipelineRequest {
	return PipelineRequest{
		UserID:       "owner-1",
		PhoneNumber:  "+15550100",
		Chunks:       []entities.AudioChunk{memoChunk()},
		SampleRate:   16000,
		ChannelCount: 1,
		Language:     "en-US",
		ContentType:  "dish_highlight",
		Context: entities.RestaurantContext{
			Name:    "Bistro Luna",
			Cuisine: "Italian",
		},
		Platforms: []entities.SocialPlatform{{
			Name:    "instagram",
			Enabled: true,
			Customization: entities.PlatformCustomization{
				MaxLength:        2200,
				HashtagCount:     30,
				IncludeCtaButton: true,
			},
		}},
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	stt := &fixedSTT{text: "This is our signature truffle risotto, creamy and rich"}
	generator := &fixedGenerator{
		reply: `{"content": "Our signature truffle risotto is back. Come try it tonight!", "hashtags": ["#truffle", "#bistroluna"], "virality_score": 70}`,
	}
	fixture := newPipelineFixture(t, stt, generator)

	result, err := fixture.service.Run(context.Background(), pipelineRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Transcription.Text != "This is our signature truffle risotto, creamy and rich" {
		t.Errorf("Unexpected transcript: %q", result.Transcription.Text)
	}
	if len(result.Drafts) != 1 {
		t.Fatalf("Expected 1 draft, got %d", len(result.Drafts))
	}

	draft := result.Drafts[0]
	if !draft.Validation.Valid {
		t.Errorf("Expected valid draft, got issues: %v", draft.Validation.Issues)
	}
	if draft.Draft.Status != entities.DraftStatusPendingApproval {
		t.Errorf("Expected pending_approval, got %s", draft.Draft.Status)
	}
	if draft.ApprovalID == "" {
		t.Error("Expected approval id for a valid draft with a phone number")
	}

	if len(fixture.store.saved) != 1 {
		t.Fatalf("Expected 1 persisted draft, got %d", len(fixture.store.saved))
	}
	if fixture.store.saved[0].Transcript != result.Transcription.Text {
		t.Error("Expected transcript persisted on the draft")
	}

	if fixture.usage.metric != MetricVoiceSeconds {
		t.Errorf("Expected voice_seconds tracked, got %q", fixture.usage.metric)
	}
	if math.Abs(fixture.usage.amount-0.5) > 0.001 {
		t.Errorf("Expected 0.5 seconds tracked, got %.3f", fixture.usage.amount)
	}

	if len(fixture.dispatcher.requests) != 1 {
		t.Fatalf("Expected 1 approval dispatch, got %d", len(fixture.dispatcher.requests))
	}
	sent := fixture.dispatcher.requests[0]
	if sent.Destination != "+15550100" || sent.Platform != "instagram" {
		t.Errorf("Unexpected approval request: %+v", sent)
	}
}

func TestPipelineFlagsInvalidDrafts(t *testing.T) {
	stt := &fixedSTT{text: "a memo"}
	// Caption with no call to action against a platform that requires one.
	generator := &fixedGenerator{reply: `{"content": "A plain description of the dish."}`}
	fixture := newPipelineFixture(t, stt, generator)

	result, err := fixture.service.Run(context.Background(), pipelineRequest())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	draft := result.Drafts[0]
	if draft.Validation.Valid {
		t.Fatal("Expected validation failure")
	}
	if draft.Draft.Status != entities.DraftStatusNeedsEdit {
		t.Errorf("Expected needs_edit, got %s", draft.Draft.Status)
	}
	if len(draft.Draft.Issues) == 0 {
		t.Error("Expected issues recorded on the draft")
	}

	// Invalid drafts are persisted for editing but never dispatched.
	if len(fixture.store.saved) != 1 {
		t.Errorf("Expected invalid draft persisted, got %d", len(fixture.store.saved))
	}
	if len(fixture.dispatcher.requests) != 0 {
		t.Errorf("Expected no approval dispatch, got %d", len(fixture.dispatcher.requests))
	}
}

func TestPipelineSkipsDispatchWithoutPhoneNumber(t *testing.T) {
	stt := &fixedSTT{text: "a memo"}
	generator := &fixedGenerator{reply: `{"content": "Come try the risotto tonight!"}`}
	fixture := newPipelineFixture(t, stt, generator)

	req := pipelineRequest()
	req.PhoneNumber = ""

	result, err := fixture.service.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Drafts[0].ApprovalID != "" {
		t.Error("Expected no approval id without a phone number")
	}
	if len(fixture.dispatcher.requests) != 0 {
		t.Errorf("Expected no dispatch, got %d", len(fixture.dispatcher.requests))
	}
}

func TestPipelinePropagatesTranscriptionFailure(t *testing.T) {
	stt := &fixedSTT{err: errors.New("provider down")}
	fixture := newPipelineFixture(t, stt, &fixedGenerator{reply: "unused"})

	_, err := fixture.service.Run(context.Background(), pipelineRequest())
	if err == nil {
		t.Fatal("Expected transcription failure to propagate")
	}
	if !domain.IsKind(err, domain.ErrTranscription) {
		t.Errorf("Expected transcription error kind, got %v", err)
	}
	if len(fixture.store.saved) != 0 {
		t.Error("Expected no drafts persisted after transcription failure")
	}
}

func TestPipelineRejectsEmptyCapture(t *testing.T) {
	fixture := newPipelineFixture(t, &fixedSTT{text: "x"}, &fixedGenerator{reply: "x"})

	req := pipelineRequest()
	req.Chunks = nil

	_, err := fixture.service.Run(context.Background(), req)
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Errorf("Expected empty_input error, got %v", err)
	}
}

func TestPipelineToleratesUsageTrackingFailure(t *testing.T) {
	stt := &fixedSTT{text: "a memo"}
	generator := &fixedGenerator{reply: `{"content": "Come try it!"}`}
	fixture := newPipelineFixture(t, stt, generator)
	fixture.usage.err = errors.New("usage store down")

	result, err := fixture.service.Run(context.Background(), pipelineRequest())
	if err != nil {
		t.Fatalf("Expected run to survive usage tracking failure, got %v", err)
	}
	if len(result.Drafts) != 1 {
		t.Errorf("Expected drafts despite tracking failure, got %d", len(result.Drafts))
	}
}
