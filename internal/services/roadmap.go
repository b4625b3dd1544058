package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orbitlearn/orbit-server/internal/ai"
	"github.com/orbitlearn/orbit-server/internal/models"
)

const roadmapSystem = "You are a learning path expert. Return ONLY valid JSON, no markdown formatting."

const roadmapPromptTemplate = `Create a %d-week learning roadmap for: %s

Level: %s

IMPORTANT: Return ONLY valid JSON, no markdown, no explanations.

JSON structure:
{
  "title": "Roadmap for %s",
  "description": "Learning path description",
  "duration_weeks": %d,
  "nodes": [
    {"id": "node1", "title": "Topic 1", "description": "Learn basics", "week": 1, "resources": ["Resource 1"], "skills": ["Skill 1"]},
    {"id": "node2", "title": "Topic 2", "description": "Build skills", "week": 4, "resources": ["Resource 2"], "skills": ["Skill 2"]}
  ],
  "edges": [
    {"from": "node1", "to": "node2"}
  ]
}

Create 3-5 nodes with proper progression. Return only the JSON.`

// RoadmapService generates learning roadmaps as node/edge graphs.
type RoadmapService struct {
	gen      Generator
	fallback bool
	logger   *zap.SugaredLogger
}

func NewRoadmapService(gen Generator, fallback bool, logger *zap.SugaredLogger) *RoadmapService {
	return &RoadmapService{gen: gen, fallback: fallback, logger: logger}
}

// Generate builds a duration-week roadmap toward goal for a learner at
// level. Generation or parse failures degrade to the three-node starter
// roadmap unless the roadmap policy is strict.
func (s *RoadmapService) Generate(ctx context.Context, goal, level string, durationWeeks int) (models.RoadmapData, error) {
	body := fmt.Sprintf(roadmapPromptTemplate, durationWeeks, goal, level, goal, durationWeeks)
	prompt := ai.BuildPromptWithSystem(roadmapSystem, body, nil, nil)

	text, err := s.gen.Generate(ctx, ai.TaskRoadmap, prompt)
	if err == nil {
		var data models.RoadmapData
		if derr := ai.DecodeJSON(ai.TaskRoadmap, text, &data); derr != nil {
			err = derr
		} else {
			return data, nil
		}
	}

	if !s.fallback {
		return models.RoadmapData{}, err
	}
	s.logger.Warnw("roadmap generation failed, using fallback", "goal", goal, "error", err)
	return FallbackRoadmap(goal, durationWeeks), nil
}

// FallbackRoadmap is the deterministic starter path: three staged nodes
// spread over the requested duration, chained by two edges.
func FallbackRoadmap(goal string, durationWeeks int) models.RoadmapData {
	return models.RoadmapData{
		Title:         goal,
		Description:   fmt.Sprintf("Learning path for %s", goal),
		DurationWeeks: durationWeeks,
		Nodes: []models.RoadmapNode{
			{
				ID:          "start",
				Title:       "Getting Started",
				Description: fmt.Sprintf("Begin learning %s", goal),
				Week:        1,
				Resources:   []string{"Online tutorials"},
				Skills:      []string{"Basics"},
			},
			{
				ID:          "intermediate",
				Title:       "Building Skills",
				Description: "Develop core competencies",
				Week:        durationWeeks / 2,
				Resources:   []string{"Practice projects"},
				Skills:      []string{"Intermediate"},
			},
			{
				ID:          "advanced",
				Title:       "Advanced Topics",
				Description: "Master advanced concepts",
				Week:        durationWeeks,
				Resources:   []string{"Advanced courses"},
				Skills:      []string{"Advanced"},
			},
		},
		Edges: []models.RoadmapEdge{
			{From: "start", To: "intermediate"},
			{From: "intermediate", To: "advanced"},
		},
	}
}
