package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/ai/dto"
	"anoa.com/akademika/internal/modules/ai/provider"
	"anoa.com/akademika/internal/modules/ai/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/ratelimit"
	"anoa.com/akademika/pkg/apperror"
	"anoa.com/akademika/pkg/validator"
	"gorm.io/datatypes"
)

const (
	actionRecommend = "ai_recommend"
	actionSyllabus  = "ai_syllabus"

	historyLimit = 20
)

type AIService interface {
	Recommend(ctx context.Context, actor policy.Actor, req dto.RecommendationRequest) (*dto.RecommendationResponse, error)
	GenerateSyllabus(ctx context.Context, actor policy.Actor, req dto.SyllabusRequest) (*dto.SyllabusResponse, error)
	GetRecommendations(ctx context.Context, actor policy.Actor) ([]dto.RecommendationResponse, error)
	GetSyllabi(ctx context.Context, actor policy.Actor) ([]dto.SyllabusResponse, error)
}

type aiService struct {
	repo     repository.AIRepository
	provider provider.Provider
	limiter  *ratelimit.Cooldown
	cooldown time.Duration
}

// NewAIService wires AI generation. llm may be nil when no model is configured; generation
// then fails with ErrUnavailable while history stays readable.
func NewAIService(repo repository.AIRepository, llm provider.Provider, limiter *ratelimit.Cooldown, cooldown time.Duration) AIService {
	return &aiService{
		repo:     repo,
		provider: llm,
		limiter:  limiter,
		cooldown: cooldown,
	}
}

func (s *aiService) Recommend(ctx context.Context, actor policy.Actor, req dto.RecommendationRequest) (*dto.RecommendationResponse, error) {
	if err := policy.Authorize(actor, policy.ActionAIRecommend); err != nil {
		return nil, err
	}
	req.Interests = strings.TrimSpace(req.Interests)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	var payload dto.RecommendationPayload
	raw, err := s.generate(ctx, actionRecommend, actor, recommendationPrompt(req), &payload, func() bool {
		return payload.Recommendations != nil
	})
	if err != nil {
		return nil, err
	}
	rec := &entity.AiRecommendation{
		UserID:    actor.UserID,
		Interests: req.Interests,
		Level:     req.Level,
		Payload:   datatypes.JSON(raw),
	}
	if err := s.repo.SaveRecommendation(ctx, rec); err != nil {
		return nil, err
	}

	res := toRecommendationResponse(rec)
	return &res, nil
}

func (s *aiService) GenerateSyllabus(ctx context.Context, actor policy.Actor, req dto.SyllabusRequest) (*dto.SyllabusResponse, error) {
	if err := policy.Authorize(actor, policy.ActionAISyllabus); err != nil {
		return nil, err
	}
	req.CourseTitle = strings.TrimSpace(req.CourseTitle)
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	var payload dto.SyllabusPayload
	raw, err := s.generate(ctx, actionSyllabus, actor, syllabusPrompt(req), &payload, func() bool {
		return payload.Syllabus.WeeklySchedule != nil
	})
	if err != nil {
		return nil, err
	}
	syllabus := &entity.GeneratedSyllabus{
		UserID:            actor.UserID,
		CourseTitle:       req.CourseTitle,
		CourseDescription: req.CourseDescription,
		Duration:          req.Duration,
		Credits:           req.Credits,
		Payload:           datatypes.JSON(raw),
	}
	if err := s.repo.SaveSyllabus(ctx, syllabus); err != nil {
		return nil, err
	}

	res := toSyllabusResponse(syllabus)
	return &res, nil
}

func (s *aiService) GetRecommendations(ctx context.Context, actor policy.Actor) ([]dto.RecommendationResponse, error) {
	recs, err := s.repo.ListRecommendations(ctx, actor.UserID, historyLimit)
	if err != nil {
		return nil, err
	}
	res := make([]dto.RecommendationResponse, 0, len(recs))
	for _, r := range recs {
		res = append(res, toRecommendationResponse(r))
	}
	return res, nil
}

func (s *aiService) GetSyllabi(ctx context.Context, actor policy.Actor) ([]dto.SyllabusResponse, error) {
	if err := policy.Authorize(actor, policy.ActionAISyllabus); err != nil {
		return nil, err
	}
	syllabi, err := s.repo.ListSyllabi(ctx, actor.UserID, historyLimit)
	if err != nil {
		return nil, err
	}
	res := make([]dto.SyllabusResponse, 0, len(syllabi))
	for _, sy := range syllabi {
		res = append(res, toSyllabusResponse(sy))
	}
	return res, nil
}

// generate runs one model call under the per-user cooldown and returns the model's JSON untouched.
// The answer is decoded into shape and must satisfy complete; otherwise the call counts as failed
// and the cooldown is freed.
func (s *aiService) generate(ctx context.Context, action string, actor policy.Actor, prompt string, shape any, complete func() bool) (json.RawMessage, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("ai provider is not configured: %w", apperror.ErrUnavailable)
	}

	subject := actor.UserID.String()
	allowed, err := s.limiter.Acquire(ctx, action, subject, s.cooldown)
	if err != nil {
		slog.Warn("ai rate limit check failed, continuing", "user_id", actor.UserID, "error", err)
	} else if !allowed {
		return nil, fmt.Errorf("please wait before generating again: %w", apperror.ErrRateLimitExceeded)
	}

	var raw json.RawMessage
	err = s.provider.GenerateStructured(ctx, prompt, &raw)
	if err == nil {
		if err = json.Unmarshal(raw, shape); err == nil && !complete() {
			err = errors.New("response does not match the requested shape")
		}
	}
	if err != nil {
		if relErr := s.limiter.Release(ctx, action, subject); relErr != nil {
			slog.Warn("failed to release ai cooldown", "user_id", actor.UserID, "error", relErr)
		}
		slog.Error("ai generation failed", "action", action, "user_id", actor.UserID, "error", err)
		return nil, fmt.Errorf("ai generation failed: %w", apperror.ErrUnavailable)
	}
	return raw, nil
}

func recommendationPrompt(req dto.RecommendationRequest) string {
	return fmt.Sprintf(`You are an academic advisor. Recommend up to 5 university courses for a %s student interested in: %s.
Respond with JSON only, shaped exactly as:
{"recommendations": [{"title": "string", "reason": "string", "level": "beginner|intermediate|advanced"}]}`,
		req.Level, req.Interests)
}

func syllabusPrompt(req dto.SyllabusRequest) string {
	return fmt.Sprintf(`You are designing a university course.
Title: %s
Description: %s
Duration: %d weeks
Credits: %d
Produce a week-by-week syllabus covering every week. Respond with JSON only, shaped exactly as:
{"syllabus": {"weeklySchedule": [{"week": 1, "topic": "string", "activities": ["string"]}]}}`,
		req.CourseTitle, req.CourseDescription, req.Duration, req.Credits)
}

func toRecommendationResponse(r *entity.AiRecommendation) dto.RecommendationResponse {
	return dto.RecommendationResponse{
		ID:        r.ID,
		Interests: r.Interests,
		Level:     r.Level,
		Payload:   json.RawMessage(r.Payload),
		CreatedAt: r.CreatedAt,
	}
}

func toSyllabusResponse(s *entity.GeneratedSyllabus) dto.SyllabusResponse {
	return dto.SyllabusResponse{
		ID:                s.ID,
		CourseTitle:       s.CourseTitle,
		CourseDescription: s.CourseDescription,
		Duration:          s.Duration,
		Credits:           s.Credits,
		Payload:           json.RawMessage(s.Payload),
		CreatedAt:         s.CreatedAt,
	}
}
