package models

import "time"

// RoadmapNode is one learning milestone on a roadmap.
type RoadmapNode struct {
	ID          string   `bson:"id" json:"id"`
	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description" json:"description"`
	Week        int      `bson:"week" json:"week"`
	Resources   []string `bson:"resources" json:"resources"`
	Skills      []string `bson:"skills" json:"skills"`
}

// RoadmapEdge is a dependency between two nodes.
type RoadmapEdge struct {
	From string `bson:"from" json:"from"`
	To   string `bson:"to" json:"to"`
}

// RoadmapData is the generated learning path graph.
type RoadmapData struct {
	Title         string        `bson:"title" json:"title"`
	Description   string        `bson:"description" json:"description"`
	DurationWeeks int           `bson:"duration_weeks" json:"duration_weeks"`
	Nodes         []RoadmapNode `bson:"nodes" json:"nodes"`
	Edges         []RoadmapEdge `bson:"edges" json:"edges"`
}

// Roadmap is a saved roadmap document owned by a user.
type Roadmap struct {
	ID            string      `bson:"_id" json:"id"`
	UserEmail     string      `bson:"user_email" json:"user_email"`
	Title         string      `bson:"title" json:"title"`
	Description   string      `bson:"description" json:"description"`
	DurationWeeks int         `bson:"duration_weeks" json:"duration_weeks"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
	Data          RoadmapData `bson:"data" json:"data"`
}
