package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
)

// Slide background palette, cycled by scene index.
var scenePalette = []string{"#4ECDC4", "#FF6B6B", "#4D96FF", "#FFD93D", "#6BCF7F", "#A78BFA", "#F97316", "#EC4899"}

const (
	// StatusGenerated marks a video spec produced by the model itself.
	StatusGenerated = "generated_specification"
	// StatusFallback marks a spec assembled locally from scene scripts.
	StatusFallback = "fallback_specification"

	defaultMaxScenes = 8
)

const scriptPromptTemplate = `Create a video script with %d educational scenes from this text.
Return ONLY valid JSON array:
[{"narration": "text", "visual_description": "description"}]

Rules:
- %d scenes max
- 10-20 words per narration
- JSON only, no markdown

Text: %s`

const videoPromptTemplate = `Create an educational video specification in JSON format.

Content: %s

Specs: %ds, %s, %s, %s style

Return ONLY this JSON structure with %d scenes:
{
    "video_description": "Brief video overview",
    "scenes": [
        {"start_time": 0, "duration": 5, "visual_prompt": "Visual elements", "narration": "Narration text", "transitions": "fade"}
    ],
    "background_music": "Music style",
    "visual_style": "Visual aesthetic"
}

Keep descriptions concise. Return only valid JSON.`

// VideoResult is the outcome of a video-spec generation: the spec (nil only
// when the provider was unreachable), how it was produced, and the simple
// scene list clients can always render.
type VideoResult struct {
	Spec           *models.VideoSpec
	Status         string
	FallbackScenes []models.Scene
}

// VisualService converts text into scene scripts and video specifications.
type VisualService struct {
	gen      Generator
	fallback bool
	logger   *zap.SugaredLogger
}

func NewVisualService(gen Generator, fallback bool, logger *zap.SugaredLogger) *VisualService {
	return &VisualService{gen: gen, fallback: fallback, logger: logger}
}

// GenerateScript asks the model for up to maxScenes narration/visual pairs.
// Any failure degrades to word-chunked fallback scenes unless the visual
// policy is strict.
func (s *VisualService) GenerateScript(ctx context.Context, text string, maxScenes int) ([]models.Scene, error) {
	body := fmt.Sprintf(scriptPromptTemplate, maxScenes, maxScenes, text)
	prompt := ai.BuildPrompt(ai.TaskVisual, body, nil, nil)

	raw, err := s.gen.Generate(ctx, ai.TaskVisual, prompt)
	if err == nil {
		var scenes []models.Scene
		if derr := ai.DecodeJSON(ai.TaskVisual, raw, &scenes); derr != nil {
			err = derr
		} else {
			return scenes, nil
		}
	}

	if !s.fallback {
		return nil, err
	}
	s.logger.Warnw("visual script generation failed, using fallback scenes", "error", err)
	return FallbackScenes(text, maxScenes), nil
}

// GenerateVideo produces a timed video specification for text. The scene
// count scales with duration (3 to 6, one per five seconds). A reply that
// does not end in a closing brace is treated as truncated. Failed
// generations degrade to a spec assembled from scene scripts; an
// unreachable provider degrades to bare fallback scenes with no spec.
func (s *VisualService) GenerateVideo(ctx context.Context, text string, duration int, resolution, aspectRatio, style string) (VideoResult, error) {
	sceneCount := duration / 5
	if sceneCount < 3 {
		sceneCount = 3
	}
	if sceneCount > 6 {
		sceneCount = 6
	}

	body := fmt.Sprintf(videoPromptTemplate, text, duration, resolution, aspectRatio, style, sceneCount)
	prompt := ai.BuildPrompt(ai.TaskVideo, body, nil, nil)

	raw, err := s.gen.Generate(ctx, ai.TaskVideo, prompt)
	if err == nil {
		var spec models.VideoSpec
		if !strings.HasSuffix(strings.TrimSpace(raw), "}") {
			err = &ai.Error{Kind: ai.KindInvalidJSON, Task: ai.TaskVideo, Detail: "truncated reply"}
		} else if derr := ai.DecodeJSON(ai.TaskVideo, raw, &spec); derr != nil {
			err = derr
		} else {
			return VideoResult{Spec: &spec, Status: StatusGenerated, FallbackScenes: ExtractScenes(spec)}, nil
		}
	}

	if !s.fallback {
		return VideoResult{}, err
	}

	if errors.Is(err, ai.ErrNotConfigured) {
		s.logger.Warnw("video generation unavailable, using fallback scenes", "error", err)
		return VideoResult{FallbackScenes: FallbackScenes(text, defaultMaxScenes)}, nil
	}

	s.logger.Warnw("video spec generation failed, building spec from scenes", "error", err)
	maxScenes := duration / 5
	if !ai.IsKind(err, ai.KindInvalidJSON) && maxScenes < 3 {
		maxScenes = 3
	}

	scenes, serr := s.GenerateScript(ctx, text, maxScenes)
	if serr != nil {
		return VideoResult{}, serr
	}
	spec := SpecFromScenes(scenes, duration, resolution, aspectRatio)
	return VideoResult{Spec: &spec, Status: StatusFallback, FallbackScenes: scenes}, nil
}

// FallbackScenes chunks text into slides: narration capped at 150 runes,
// a short slide label, a palette color, five seconds each.
func FallbackScenes(text string, maxScenes int) []models.Scene {
	if maxScenes < 1 {
		maxScenes = 1
	}

	words := strings.Fields(text)
	chunkSize := len(words) / maxScenes
	if chunkSize < 10 {
		chunkSize = 10
	}

	limit := chunkSize * maxScenes
	if limit > len(words) {
		limit = len(words)
	}

	var scenes []models.Scene
	for i := 0; i < limit; i += chunkSize {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		narration := chunk
		if runes := []rune(chunk); len(runes) > 150 {
			narration = string(runes[:150]) + "..."
		}

		n := len(scenes) + 1
		scenes = append(scenes, models.Scene{
			Narration:         narration,
			VisualDescription: fmt.Sprintf("Educational illustration for scene %d", n),
			Visual:            fmt.Sprintf("Slide %d: %s...", n, truncateRunes(chunk, 50)),
			Color:             scenePalette[(n-1)%len(scenePalette)],
			Duration:          5,
		})
	}

	if len(scenes) > maxScenes {
		scenes = scenes[:maxScenes]
	}
	return scenes
}

// ExtractScenes flattens a video spec into plain narration/visual pairs.
func ExtractScenes(spec models.VideoSpec) []models.Scene {
	scenes := make([]models.Scene, 0, len(spec.Scenes))
	for _, sc := range spec.Scenes {
		scenes = append(scenes, models.Scene{
			Narration:         sc.Narration,
			VisualDescription: sc.VisualPrompt,
		})
	}
	return scenes
}

// SpecFromScenes lays scenes onto a timeline: even durations of at least
// three seconds, fade transitions except after the last scene.
func SpecFromScenes(scenes []models.Scene, duration int, resolution, aspectRatio string) models.VideoSpec {
	sceneDuration := 5
	if len(scenes) > 0 {
		sceneDuration = duration / len(scenes)
		if sceneDuration < 3 {
			sceneDuration = 3
		}
	}

	specScenes := make([]models.VideoSpecScene, 0, len(scenes))
	current := 0
	for i, scene := range scenes {
		transitions := "fade"
		if i == len(scenes)-1 {
			transitions = "none"
		}
		specScenes = append(specScenes, models.VideoSpecScene{
			StartTime:    current,
			Duration:     sceneDuration,
			VisualPrompt: fmt.Sprintf("Educational visualization: %s. Professional educational style with clear typography and engaging graphics.", scene.VisualDescription),
			Narration:    scene.Narration,
			Transitions:  transitions,
		})
		current += sceneDuration
	}

	return models.VideoSpec{
		VideoDescription: fmt.Sprintf("Educational video in %s resolution with %s aspect ratio", resolution, aspectRatio),
		Scenes:           specScenes,
		BackgroundMusic:  "soft educational background music",
		VisualStyle:      "clean, modern educational design with consistent branding",
	}
}

// SlideshowScenes renders a VideoResult as display-ready slides. Spec scenes
// win over fallback scenes; every slide ends up with a visual label, a
// color, and a duration.
func SlideshowScenes(result VideoResult) []models.Scene {
	if result.Spec != nil && result.Spec.Scenes != nil {
		out := make([]models.Scene, 0, len(result.Spec.Scenes))
		for i, sc := range result.Spec.Scenes {
			duration := sc.Duration
			if duration == 0 {
				duration = 5
			}
			out = append(out, models.Scene{
				Narration:         sc.Narration,
				VisualDescription: sc.VisualPrompt,
				Visual:            truncateRunes(sc.VisualPrompt, 100),
				Color:             scenePalette[i%len(scenePalette)],
				Duration:          duration,
			})
		}
		return out
	}

	out := make([]models.Scene, len(result.FallbackScenes))
	copy(out, result.FallbackScenes)
	for i := range out {
		if out[i].Color == "" {
			out[i].Color = scenePalette[i%len(scenePalette)]
		}
		if out[i].Visual == "" {
			out[i].Visual = truncateRunes(out[i].VisualDescription, 100)
		}
		if out[i].Duration == 0 {
			out[i].Duration = 5
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
