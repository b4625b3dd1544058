package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/orbitlearn/orbit-server/internal/db"
	"github.com/orbitlearn/orbit-server/internal/models"
)

// RoadmapStore persists generated learning roadmaps.
type RoadmapStore struct {
	roadmaps *mongo.Collection
}

func NewRoadmapStore(m *db.Mongo) *RoadmapStore {
	return &RoadmapStore{roadmaps: m.Roadmaps}
}

// SaveRoadmap inserts a roadmap, assigning an id when none is set.
func (s *RoadmapStore) SaveRoadmap(ctx context.Context, roadmap models.Roadmap) (models.Roadmap, error) {
	if roadmap.ID == "" {
		roadmap.ID = uuid.NewString()
	}

	if _, err := s.roadmaps.InsertOne(ctx, roadmap); err != nil {
		return models.Roadmap{}, fmt.Errorf("store: save roadmap: %w", err)
	}

	return roadmap, nil
}

// RoadmapsByUser lists a user's roadmaps, newest first.
func (s *RoadmapStore) RoadmapsByUser(ctx context.Context, userEmail string) ([]models.Roadmap, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.roadmaps.Find(ctx, bson.M{"user_email": userEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: load roadmaps: %w", err)
	}
	defer cursor.Close(ctx)

	var roadmaps []models.Roadmap
	if err := cursor.All(ctx, &roadmaps); err != nil {
		return nil, fmt.Errorf("store: decode roadmaps: %w", err)
	}

	return roadmaps, nil
}

// RoadmapByID returns one roadmap owned by the user, or nil when absent.
func (s *RoadmapStore) RoadmapByID(ctx context.Context, id, userEmail string) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	err := s.roadmaps.FindOne(ctx, bson.M{"_id": id, "user_email": userEmail}).Decode(&roadmap)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("store: load roadmap: %w", err)
	}

	return &roadmap, nil
}

// DeleteRoadmap removes one roadmap owned by the user and reports whether
// it existed.
func (s *RoadmapStore) DeleteRoadmap(ctx context.Context, id, userEmail string) (bool, error) {
	result, err := s.roadmaps.DeleteOne(ctx, bson.M{"_id": id, "user_email": userEmail})
	if err != nil {
		return false, fmt.Errorf("store: delete roadmap: %w", err)
	}

	return result.DeletedCount > 0, nil
}

// CountByUser returns the number of roadmaps a user owns.
func (s *RoadmapStore) CountByUser(ctx context.Context, userEmail string) (int64, error) {
	count, err := s.roadmaps.CountDocuments(ctx, bson.M{"user_email": userEmail})
	if err != nil {
		return 0, fmt.Errorf("store: count roadmaps: %w", err)
	}

	return count, nil
}

// CountDistinctSkills counts unique node ids across all of a user's
// roadmaps. Each node is treated as one skill in progress.
func (s *RoadmapStore) CountDistinctSkills(ctx context.Context, userEmail string) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_email": userEmail}}},
		{{Key: "$project", Value: bson.M{"skills": bson.M{"$ifNull": bson.A{"$data.nodes", bson.A{}}}}}},
		{{Key: "$unwind", Value: "$skills"}},
		{{Key: "$group", Value: bson.M{"_id": "$skills.id"}}},
		{{Key: "$count", Value: "unique_skills_count"}},
	}

	cursor, err := s.roadmaps.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("store: count skills: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		UniqueSkillsCount int `bson:"unique_skills_count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("store: decode skill count: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	return results[0].UniqueSkillsCount, nil
}
