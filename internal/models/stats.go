package models

// UserStats aggregates a user's learning activity. Minutes are estimated
// from completed quizzes and skills in progress rather than tracked live.
type UserStats struct {
	TotalLearningMinutes int `json:"total_learning_minutes"`
	QuizzesTaken         int `json:"quizzes_taken"`
	ActiveRoadmaps       int `json:"active_roadmaps"`
	SkillsLearning       int `json:"skills_learning"`
	RoadmapsCreated      int `json:"roadmaps_created"`
	TotalSkillsLearning  int `json:"total_skills_learning"`
}
