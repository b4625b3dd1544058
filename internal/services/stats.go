package services

import (
	"context"

	"github.com/orbitlearn/orbit-server/internal/models"
	"github.com/orbitlearn/orbit-server/internal/store"
)

// Learning-time heuristic: a flat per-activity estimate, not tracked time.
const (
	minutesPerQuiz  = 8
	minutesPerSkill = 5
)

// StatsService aggregates per-user activity counters.
type StatsService struct {
	quizzes  *store.QuizStore
	roadmaps *store.RoadmapStore
}

func NewStatsService(quizzes *store.QuizStore, roadmaps *store.RoadmapStore) *StatsService {
	return &StatsService{quizzes: quizzes, roadmaps: roadmaps}
}

// UserStats computes the dashboard counters for one user: roadmap count,
// distinct skills across those roadmaps, quiz attempts, and the estimated
// learning minutes derived from them.
func (s *StatsService) UserStats(ctx context.Context, userEmail string) (models.UserStats, error) {
	roadmaps, err := s.roadmaps.CountByUser(ctx, userEmail)
	if err != nil {
		return models.UserStats{}, err
	}
	skills, err := s.roadmaps.CountDistinctSkills(ctx, userEmail)
	if err != nil {
		return models.UserStats{}, err
	}
	attempts, err := s.quizzes.CountHistory(ctx, userEmail)
	if err != nil {
		return models.UserStats{}, err
	}
	return ComputeStats(int(attempts), skills, int(roadmaps)), nil
}

// ComputeStats applies the minutes heuristic to raw counters.
func ComputeStats(quizzesTaken, skillsLearning, roadmaps int) models.UserStats {
	return models.UserStats{
		TotalLearningMinutes: quizzesTaken*minutesPerQuiz + skillsLearning*minutesPerSkill,
		QuizzesTaken:         quizzesTaken,
		ActiveRoadmaps:       roadmaps,
		SkillsLearning:       skillsLearning,
		RoadmapsCreated:      roadmaps,
		TotalSkillsLearning:  skillsLearning,
	}
}
