package models

// Scene is one slide of a generated slideshow. Visual, Color and Duration
// are present only after a scene has been decorated for playback.
type Scene struct {
	Narration         string `json:"narration"`
	VisualDescription string `json:"visual_description"`
	Visual            string `json:"visual,omitempty"`
	Color             string `json:"color,omitempty"`
	Duration          int    `json:"duration,omitempty"`
}

// VideoSpecScene is a timed scene inside a video specification.
type VideoSpecScene struct {
	StartTime    int    `json:"start_time"`
	Duration     int    `json:"duration"`
	VisualPrompt string `json:"visual_prompt"`
	Narration    string `json:"narration"`
	Transitions  string `json:"transitions"`
}

// VideoSpec describes a renderable educational video.
type VideoSpec struct {
	VideoDescription string           `json:"video_description"`
	Scenes           []VideoSpecScene `json:"scenes"`
	BackgroundMusic  string           `json:"background_music"`
	VisualStyle      string           `json:"visual_style"`
}

// SlideshowMetadata records how a slideshow was produced.
type SlideshowMetadata struct {
	Source         string `json:"source"`
	UserEmail      string `json:"user_email"`
	GenerationMode string `json:"generation_mode"`
}

// Slideshow is the playback payload returned by the visual endpoints.
// The optional fields vary with the source: text inputs carry TotalWords,
// PDF inputs ExtractedTextLength, audio inputs AudioSource and VideoType.
type Slideshow struct {
	Type                string            `json:"type"`
	Scenes              []Scene           `json:"scenes"`
	Duration            int               `json:"duration"`
	Resolution          string            `json:"resolution,omitempty"`
	TotalWords          int               `json:"total_words,omitempty"`
	ExtractedTextLength int               `json:"extracted_text_length,omitempty"`
	AudioSource         string            `json:"audio_source,omitempty"`
	VideoType           string            `json:"video_type,omitempty"`
	TotalSlides         int               `json:"total_slides"`
	AutoPlay            bool              `json:"auto_play"`
	TransitionDuration  int               `json:"transition_duration"`
	Status              string            `json:"status"`
	Metadata            SlideshowMetadata `json:"metadata"`
}
