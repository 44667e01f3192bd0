package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain"
	"github.com/dishcast/dishcast/domain/entities"
	"github.com/dishcast/dishcast/domain/repositories"
	"github.com/dishcast/dishcast/internal/audio"
)

// MetricVoiceSeconds is the usage metric for transcribed audio time.
const MetricVoiceSeconds = "voice_seconds"

// PipelineRequest is one captured memo ready for the full pipeline run.
type PipelineRequest struct {
	UserID           string
	PhoneNumber      string // approval SMS destination; empty skips dispatch
	Chunks           []entities.AudioChunk
	SampleRate       int
	ChannelCount     int
	Language         string
	ContentType      string
	Mood             string
	ImageDescription string
	IncludeHashtags  bool
	IncludeEmojis    bool
	Context          entities.RestaurantContext
	Platforms        []entities.SocialPlatform
}

// DraftResult pairs a saved draft with its validation outcome.
type DraftResult struct {
	Draft      *entities.ContentDraft `json:"draft"`
	Validation ValidationReport       `json:"validation"`
	ApprovalID string                 `json:"approval_id,omitempty"`
}

// PipelineResult is the outcome of a full run. Drafts may be partial when
// individual platforms failed.
type PipelineResult struct {
	Transcription *entities.TranscriptionResult `json:"transcription"`
	Drafts        []DraftResult                 `json:"drafts"`
}

// PipelineService orchestrates assemble, transcribe, generate, validate,
// persist, track and approval dispatch.
type PipelineService struct {
	post       *audio.PostProcessor
	transcribe *TranscriptionService
	content    *ContentService
	validator  *ContentValidator
	store      repositories.ContentStore
	usage      repositories.UsageTracker
	approval   repositories.ApprovalDispatcher
	logger     *zap.Logger
}

// NewPipelineService wires the pipeline stages together.
func NewPipelineService(
	post *audio.PostProcessor,
	transcribe *TranscriptionService,
	content *ContentService,
	validator *ContentValidator,
	store repositories.ContentStore,
	usage repositories.UsageTracker,
	approval repositories.ApprovalDispatcher,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		post:       post,
		transcribe: transcribe,
		content:    content,
		validator:  validator,
		store:      store,
		usage:      usage,
		approval:   approval,
		logger:     logger,
	}
}

// Run executes the pipeline for one captured memo. Transcription failures
// propagate; per-draft persistence and dispatch failures are logged per item
// so one platform cannot sink the rest.
func (s *PipelineService) Run(ctx context.Context, req PipelineRequest) (*PipelineResult, error) {
	file, err := s.post.Assemble(req.Chunks, req.SampleRate, req.ChannelCount)
	if err != nil {
		return nil, err
	}

	if len(file.Data) > audio.CompressionThresholdBytes {
		file, err = s.post.Compress(file)
		if err != nil {
			return nil, err
		}
	}

	if report := s.post.Validate(file); !report.Valid {
		return nil, domain.NewQualityError("audio rejected: " + strings.Join(report.Errors, "; "))
	}

	transcription, err := s.transcribe.Transcribe(ctx, file, req.Language)
	if err != nil {
		return nil, err
	}

	if err := s.usage.Track(ctx, req.UserID, MetricVoiceSeconds, file.Duration); err != nil {
		s.logger.Warn("Usage tracking failed", zap.String("user_id", req.UserID), zap.Error(err))
	}

	generated := s.content.Generate(ctx, GenerationRequest{
		Transcript:       transcription.Text,
		ImageDescription: req.ImageDescription,
		ContentType:      req.ContentType,
		Mood:             req.Mood,
		IncludeHashtags:  req.IncludeHashtags,
		IncludeEmojis:    req.IncludeEmojis,
		Context:          req.Context,
		Platforms:        req.Platforms,
	})

	result := &PipelineResult{Transcription: transcription}
	for _, content := range generated {
		result.Drafts = append(result.Drafts, s.finishDraft(ctx, req, transcription.Text, content))
	}
	return result, nil
}

func (s *PipelineService) finishDraft(ctx context.Context, req PipelineRequest, transcript string, content entities.GeneratedContent) DraftResult {
	report := s.validator.Validate(content, platformByName(req.Platforms, content.Platform))

	draft := entities.NewContentDraft(req.UserID, req.ContentType, transcript, content, uuid.NewString())
	if !report.Valid {
		draft.Status = entities.DraftStatusNeedsEdit
		draft.Issues = report.Issues
	}

	if _, err := s.store.Save(ctx, draft); err != nil {
		s.logger.Error("Failed to save draft",
			zap.String("platform", content.Platform),
			zap.Error(err))
		return DraftResult{Draft: draft, Validation: report}
	}

	dr := DraftResult{Draft: draft, Validation: report}
	if report.Valid && req.PhoneNumber != "" {
		approvalID, err := s.approval.Send(ctx, repositories.ApprovalRequest{
			UserID:      req.UserID,
			Destination: req.PhoneNumber,
			Platform:    content.Platform,
			Caption:     content.Content,
			DraftID:     draft.DraftID,
		})
		if err != nil {
			s.logger.Error("Approval dispatch failed",
				zap.String("draft_id", draft.DraftID),
				zap.Error(err))
		} else {
			dr.ApprovalID = approvalID
		}
	}
	return dr
}

func platformByName(platforms []entities.SocialPlatform, name string) entities.SocialPlatform {
	for _, p := range platforms {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return entities.SocialPlatform{Name: name}
}
