package models

// QuizQuestion is a single multiple-choice question. CorrectAnswer always
// matches one of Options exactly.
type QuizQuestion struct {
	ID            int      `bson:"id" json:"id"`
	Question      string   `bson:"question" json:"question"`
	Options       []string `bson:"options" json:"options"`
	CorrectAnswer string   `bson:"correctAnswer" json:"correctAnswer"`
}

// GeneratedQuiz is the wire shape produced by quiz generation before the
// quiz is saved.
type GeneratedQuiz struct {
	Topic      string         `bson:"topic" json:"topic"`
	Difficulty string         `bson:"difficulty" json:"difficulty"`
	Questions  []QuizQuestion `bson:"questions" json:"questions"`
}

// Quiz is a saved quiz owned by a user.
type Quiz struct {
	ID           string         `bson:"_id" json:"id"`
	Topic        string         `bson:"topic" json:"topic"`
	Difficulty   string         `bson:"difficulty" json:"difficulty"`
	Questions    []QuizQuestion `bson:"questions" json:"questions"`
	CreatedAt    string         `bson:"created_at" json:"created_at"`
	CreatedBy    string         `bson:"created_by" json:"created_by"`
	NumQuestions int            `bson:"num_questions" json:"num_questions"`
}

// QuizSummary is the dashboard listing shape for a saved quiz.
type QuizSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Questions   int    `json:"questions"`
	Difficulty  string `json:"difficulty"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Score       *int   `json:"score"`
	QuizData    Quiz   `json:"quiz_data"`
	CreatedBy   string `json:"created_by"`
}

// AnswerFeedback grades one submitted answer. UserAnswer is nil when the
// question was left unanswered.
type AnswerFeedback struct {
	QuestionID    int      `json:"question_id"`
	Question      string   `json:"question"`
	UserAnswer    *string  `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Options       []string `json:"options"`
}

// QuizResult is the graded outcome of a submission. Percentage is rounded
// to two decimals.
type QuizResult struct {
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage float64          `json:"percentage"`
	Feedback   []AnswerFeedback `json:"feedback"`
}

// QuizHistoryEntry records one completed quiz attempt.
type QuizHistoryEntry struct {
	ID             string  `bson:"_id,omitempty" json:"id"`
	QuizID         string  `bson:"quizId" json:"quizId"`
	QuizTitle      string  `bson:"quizTitle" json:"quizTitle"`
	Topic          string  `bson:"topic" json:"topic"`
	Difficulty     string  `bson:"difficulty" json:"difficulty"`
	TotalQuestions int     `bson:"totalQuestions" json:"totalQuestions"`
	CorrectAnswers int     `bson:"correctAnswers" json:"correctAnswers"`
	Percentage     float64 `bson:"percentage" json:"percentage"`
	TimeTaken      string  `bson:"timeTaken" json:"timeTaken"`
	UserID         string  `bson:"userId" json:"userId"`
	CompletedAt    string  `bson:"completedAt" json:"completedAt"`
}
