package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/connecthub/roadmap-backend/internal/domain"
	"github.com/connecthub/roadmap-backend/internal/logger"
)

// RoadmapRecord is the persisted form of a generated roadmap. The option
// tree is stored as a JSON document; subject and title are lifted into
// columns for listing.
type RoadmapRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Subject   string         `gorm:"index" json:"subject"`
	Title     string         `json:"title"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type RoadmapRepo interface {
	Create(ctx context.Context, roadmap *domain.Roadmap) error
	GetByID(ctx context.Context, id uuid.UUID) (*RoadmapRecord, error)
	ListBySubject(ctx context.Context, subject string, limit int) ([]*RoadmapRecord, error)
}

type roadmapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoadmapRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapRepo {
	return &roadmapRepo{
		db:  db,
		log: baseLog.With("repo", "RoadmapRepo"),
	}
}

func (r *roadmapRepo) Create(ctx context.Context, roadmap *domain.Roadmap) error {
	if roadmap == nil {
		return fmt.Errorf("nil roadmap")
	}
	payload, err := json.Marshal(roadmap)
	if err != nil {
		return fmt.Errorf("marshal roadmap: %w", err)
	}
	now := time.Now().UTC()
	record := &RoadmapRecord{
		ID:        uuid.New(),
		Subject:   roadmap.Subject,
		Title:     roadmap.Title,
		Payload:   datatypes.JSON(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create roadmap record: %w", err)
	}
	return nil
}

func (r *roadmapRepo) GetByID(ctx context.Context, id uuid.UUID) (*RoadmapRecord, error) {
	var record RoadmapRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *roadmapRepo) ListBySubject(ctx context.Context, subject string, limit int) ([]*RoadmapRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []*RoadmapRecord
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
