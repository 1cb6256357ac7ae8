package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// CourseRepository persists courses together with their chat rooms.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (models.Course, error)
	ListByOrganization(ctx context.Context, organizationID uint) ([]models.Course, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdateSessionLink(ctx context.Context, id uint, link string) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a GORM backed course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

// Create stores the course and its chat room in one transaction. The room references the course and vice versa.
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course.ChatRoomID = nil
		if err := tx.Create(course).Error; err != nil {
			return err
		}

		room := models.ChatRoom{CourseID: &course.ID}
		if err := tx.Create(&room).Error; err != nil {
			return err
		}

		if err := tx.Model(course).Update("chat_room_id", room.ID).Error; err != nil {
			return err
		}
		course.ChatRoomID = &room.ID
		return nil
	})
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) ListByOrganization(ctx context.Context, organizationID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("start_date ASC, id ASC").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *courseRepository) UpdateSessionLink(ctx context.Context, id uint, link string) error {
	return r.updateColumn(ctx, id, "session_link", link)
}

func (r *courseRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
