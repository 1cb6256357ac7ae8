package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// AssessmentRepository persists assignments and tests with their questions.
type AssessmentRepository interface {
	CreateWithQuestions(ctx context.Context, assessment *models.Assessment, questions []models.Question) error
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	ListByCourse(ctx context.Context, courseID uint, kind string) ([]models.Assessment, error)
	Delete(ctx context.Context, id uint) error
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository constructs a GORM backed assessment repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

// CreateWithQuestions inserts the questions, then the assessment, then back-fills each question's assessment id.
func (r *assessmentRepository) CreateWithQuestions(ctx context.Context, assessment *models.Assessment, questions []models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			questions[i].ID = 0
			questions[i].AssessmentID = nil
			questions[i].Position = i
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}

		assessment.Questions = nil
		if err := tx.Omit(clause.Associations).Create(assessment).Error; err != nil {
			return err
		}

		ids := make([]uint, 0, len(questions))
		for i := range questions {
			ids = append(ids, questions[i].ID)
		}
		if len(ids) > 0 {
			if err := tx.Model(&models.Question{}).Where("id IN ?", ids).Update("assessment_id", assessment.ID).Error; err != nil {
				return err
			}
		}

		for i := range questions {
			id := assessment.ID
			questions[i].AssessmentID = &id
		}
		assessment.Questions = questions
		return nil
	})
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	err := r.db.WithContext(ctx).
		Preload("Questions", orderQuestions).
		First(&assessment, id).Error
	if err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}

func (r *assessmentRepository) ListByCourse(ctx context.Context, courseID uint, kind string) ([]models.Assessment, error) {
	query := r.db.WithContext(ctx).Preload("Questions", orderQuestions).Where("course_id = ?", courseID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var assessments []models.Assessment
	if err := query.Order("deadline ASC, id ASC").Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

func (r *assessmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assessment_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Assessment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func orderQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}
