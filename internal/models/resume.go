package models

// ResumeUpload identifies a stored resume file.
type ResumeUpload struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
}

// ResumeAnalysis is the normalized outcome of matching a resume against a
// job description. Raw and Warning are populated only when the model reply
// could not be parsed; they are serialized beside the analysis object, never
// inside it, so the analysis always carries exactly the four canonical keys.
type ResumeAnalysis struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	MatchScore   int      `json:"match_score"`
	Summary      string   `json:"summary"`
	Raw          string   `json:"-"`
	Warning      string   `json:"-"`
}
