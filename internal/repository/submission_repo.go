package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// SubmissionRepository persists scored submissions. A submitter has at most one submission per assessment.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetBySubmitter(ctx context.Context, assessmentID uint, submitterKey string) (models.Submission, error)
	ListByCourse(ctx context.Context, courseID uint, kind string) ([]models.Submission, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Submission, error)
	MarkGraded(ctx context.Context, id uint) (models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository constructs a submission repository backed by GORM.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetBySubmitter(ctx context.Context, assessmentID uint, submitterKey string) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("assessment_id = ? AND submitter_key = ?", assessmentID, submitterKey).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) ListByCourse(ctx context.Context, courseID uint, kind string) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC, id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC, id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

// MarkGraded finalises a submitted submission. Already graded submissions are returned unchanged.
func (r *submissionRepository) MarkGraded(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", id, models.SubmissionStatusSubmitted).
			Update("status", models.SubmissionStatusGraded)
		if result.Error != nil {
			return result.Error
		}
		return tx.First(&submission, id).Error
	})
	if err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}
