package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
)

const resumePromptPreamble = "You are an expert career coach and resume analyst. " +
	"Given the following resume and job description, analyze them and respond ONLY with a JSON object containing: " +
	"'strengths' (list of strong points in the resume relevant to the job), " +
	"'improvements' (list of specific suggestions to improve the resume for this job), " +
	"'match_score' (number between 0-100 indicating how well the resume matches the job), " +
	"and 'summary' (a concise summary of the analysis). " +
	"Do not include any extra text or explanation outside the JSON object."

const resumeParseWarning = "LLM response was not valid JSON; returned defaults with raw included."

// ResumeService matches resume text against a job description.
type ResumeService struct {
	gen      Generator
	fallback bool
	logger   *zap.SugaredLogger
}

func NewResumeService(gen Generator, fallback bool, logger *zap.SugaredLogger) *ResumeService {
	return &ResumeService{gen: gen, fallback: fallback, logger: logger}
}

// Analyze returns the normalized four-field analysis. When the resume policy
// degrades, every failure mode maps to a deterministic profile: blocked or
// empty generations score 65, unparseable replies score 60 (with the raw
// reply attached), an unreachable provider scores 0.
func (s *ResumeService) Analyze(ctx context.Context, resumeText, jobDescription string) (models.ResumeAnalysis, error) {
	prompt := fmt.Sprintf("%s\n\nResume:\n%s\n\nJob Description:\n%s", resumePromptPreamble, resumeText, jobDescription)

	text, err := s.gen.Generate(ctx, ai.TaskResume, prompt)
	if err != nil && !(ai.IsKind(err, ai.KindMaxTokens) && strings.TrimSpace(text) != "") {
		if !s.fallback {
			return models.ResumeAnalysis{}, err
		}
		s.logger.Warnw("resume analysis failed, using fallback", "error", err)
		switch {
		case ai.IsKind(err, ai.KindSafetyFilter), ai.IsKind(err, ai.KindGenerationBlocked), ai.IsKind(err, ai.KindEmptyResponse):
			return blockedResumeAnalysis(), nil
		case errors.Is(err, ai.ErrNotConfigured):
			return unavailableResumeAnalysis(jobDescription), nil
		default:
			return unavailableResumeAnalysis(jobDescription), nil
		}
	}

	var parsed map[string]any
	if derr := ai.DecodeJSON(ai.TaskResume, text, &parsed); derr != nil {
		if !s.fallback {
			return models.ResumeAnalysis{}, derr
		}
		s.logger.Warnw("resume reply was not valid JSON, using fallback", "error", derr)
		return unparsedResumeAnalysis(text), nil
	}

	return NormalizeAnalysis(parsed), nil
}

func blockedResumeAnalysis() models.ResumeAnalysis {
	return models.ResumeAnalysis{
		Strengths:    []string{"Resume includes relevant experience", "Clear structure and formatting"},
		Improvements: []string{"Consider adding more quantifiable achievements", "Include specific technical skills relevant to the role"},
		MatchScore:   65,
		Summary:      "Resume shows potential match with the role. Focus on highlighting specific achievements and relevant technical expertise.",
	}
}

func unparsedResumeAnalysis(raw string) models.ResumeAnalysis {
	return models.ResumeAnalysis{
		Strengths:    []string{"Resume reviewed"},
		Improvements: []string{"Consider adding more specific skills and achievements"},
		MatchScore:   60,
		Summary:      "Resume analysis completed with basic evaluation.",
		Raw:          raw,
		Warning:      resumeParseWarning,
	}
}

func unavailableResumeAnalysis(jobDescription string) models.ResumeAnalysis {
	if strings.TrimSpace(jobDescription) == "" {
		jobDescription = "resume analysis"
	}
	return models.ResumeAnalysis{
		Strengths:    []string{},
		Improvements: []string{},
		MatchScore:   0,
		Summary:      FallbackAnswer(jobDescription, "resume"),
	}
}

var listSplitRe = regexp.MustCompile(`[\n;]+`)

// NormalizeAnalysis coerces a parsed model reply into the canonical schema.
// Alias keys are honored (pros/good, cons/suggestions/areas_to_improve,
// match/score, overview/notes); list fields accept delimited strings; the
// score accepts numbers or "85%"-style strings and is clamped to [0,100].
// Keys absent under every alias get the documented defaults.
func NormalizeAnalysis(obj map[string]any) models.ResumeAnalysis {
	analysis := models.ResumeAnalysis{
		Strengths:    []string{},
		Improvements: []string{},
		MatchScore:   50,
		Summary:      "Analysis completed",
	}

	if v, ok := firstTruthy(obj, "strengths", "pros", "good"); ok {
		analysis.Strengths = coerceList(v)
	}
	if v, ok := firstTruthy(obj, "improvements", "cons", "suggestions", "areas_to_improve"); ok {
		analysis.Improvements = coerceList(v)
	}
	if v, ok := firstTruthy(obj, "match_score", "match", "score"); ok {
		analysis.MatchScore = coerceScore(v)
	}
	if v, ok := firstTruthy(obj, "summary", "overview", "notes"); ok {
		analysis.Summary = coerceString(v)
	}

	return analysis
}

func firstTruthy(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

func coerceList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(stringifyValue(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		out := []string{}
		for _, part := range listSplitRe.Split(val, -1) {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if p := strings.Trim(part, " -•\t"); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		if s := strings.TrimSpace(stringifyValue(val)); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

func coerceScore(v any) int {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case bool:
		if val {
			f = 1
		}
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	score := int(math.Round(f))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprint(val)
	default:
		return stringifyValue(val)
	}
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}
