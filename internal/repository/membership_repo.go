package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// Membership change actions reported by AddParticipant.
const (
	MembershipActionAdded      = "added"
	MembershipActionReenrolled = "re-enrolled"
	MembershipActionUnchanged  = "unchanged"
)

// MembershipChange describes the outcome of adding a participant.
type MembershipChange struct {
	Membership models.CourseMembership
	Action     string
}

// MembershipRepository owns course_memberships, the single record behind course rosters and user course lists.
// Every write keeps the course chat room participant set in step inside the same transaction.
type MembershipRepository interface {
	Get(ctx context.Context, courseID, userID uint, role string) (models.CourseMembership, error)
	Transition(ctx context.Context, courseID, studentID uint, from, to string, chatRoomID *uint) (models.CourseMembership, error)
	AddParticipant(ctx context.Context, courseID, userID uint, role string, chatRoomID *uint, enrollmentLimit int) (MembershipChange, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.CourseMembership, error)
	ListByUser(ctx context.Context, userID uint, role string) ([]models.CourseMembership, error)
	CountEnrolled(ctx context.Context, courseID uint) (int64, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository constructs a GORM backed membership repository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Get(ctx context.Context, courseID, userID uint, role string) (models.CourseMembership, error) {
	return findMembership(r.db.WithContext(ctx), courseID, userID, role)
}

// Transition moves a student membership from one state to another with a version compare-and-swap.
func (r *membershipRepository) Transition(ctx context.Context, courseID, studentID uint, from, to string, chatRoomID *uint) (models.CourseMembership, error) {
	var updated models.CourseMembership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := findMembership(tx, courseID, studentID, models.RoleStudent)
		if err != nil {
			return err
		}
		if membership.State != from {
			return ErrStaleMembership
		}

		if err := compareAndSwapState(tx, &membership, to); err != nil {
			return err
		}

		if chatRoomID != nil {
			if to == models.MembershipRemoved {
				if err := removeParticipantUnlessMember(tx, courseID, *chatRoomID, studentID); err != nil {
					return err
				}
			} else {
				if err := addParticipant(tx, *chatRoomID, studentID); err != nil {
					return err
				}
			}
		}

		updated = membership
		return nil
	})
	if err != nil {
		return models.CourseMembership{}, err
	}
	return updated, nil
}

// AddParticipant adds the user to the course roster and chat room. Adding an enrolled member again changes nothing
// and a removed student is re-enrolled. The enrollment limit only applies to students joining for the first time.
func (r *membershipRepository) AddParticipant(ctx context.Context, courseID, userID uint, role string, chatRoomID *uint, enrollmentLimit int) (MembershipChange, error) {
	var change MembershipChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := findMembership(tx, courseID, userID, role)
		switch {
		case err == nil:
			if membership.State == models.MembershipRemoved {
				if err := compareAndSwapState(tx, &membership, models.MembershipEnrolled); err != nil {
					return err
				}
				change.Action = MembershipActionReenrolled
			} else {
				change.Action = MembershipActionUnchanged
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if role == models.RoleStudent && enrollmentLimit > 0 {
				var enrolled int64
				if err := countEnrolled(tx, courseID, &enrolled); err != nil {
					return err
				}
				if enrolled >= int64(enrollmentLimit) {
					return ErrEnrollmentFull
				}
			}

			membership = models.CourseMembership{
				CourseID: courseID,
				UserID:   userID,
				Role:     role,
				State:    models.MembershipEnrolled,
				Version:  1,
			}
			if err := tx.Omit(clause.Associations).Create(&membership).Error; err != nil {
				return err
			}
			change.Action = MembershipActionAdded
		default:
			return err
		}

		if chatRoomID != nil {
			if err := addParticipant(tx, *chatRoomID, userID); err != nil {
				return err
			}
		}

		change.Membership = membership
		return nil
	})
	if err != nil {
		return MembershipChange{}, err
	}
	return change, nil
}

func (r *membershipRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.CourseMembership, error) {
	var memberships []models.CourseMembership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at ASC, id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID uint, role string) ([]models.CourseMembership, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var memberships []models.CourseMembership
	if err := query.Order("created_at ASC, id ASC").Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *membershipRepository) CountEnrolled(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	if err := countEnrolled(r.db.WithContext(ctx), courseID, &total); err != nil {
		return 0, err
	}
	return total, nil
}

func findMembership(db *gorm.DB, courseID, userID uint, role string) (models.CourseMembership, error) {
	var membership models.CourseMembership
	err := db.Where("course_id = ? AND user_id = ? AND role = ?", courseID, userID, role).First(&membership).Error
	if err != nil {
		return models.CourseMembership{}, err
	}
	return membership, nil
}

func compareAndSwapState(tx *gorm.DB, membership *models.CourseMembership, to string) error {
	result := tx.Model(&models.CourseMembership{}).
		Where("id = ? AND version = ? AND state = ?", membership.ID, membership.Version, membership.State).
		Updates(map[string]interface{}{
			"state":   to,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleMembership
	}

	membership.State = to
	membership.Version++
	return nil
}

func countEnrolled(db *gorm.DB, courseID uint, total *int64) error {
	return db.Model(&models.CourseMembership{}).
		Where("course_id = ? AND role = ? AND state = ?", courseID, models.RoleStudent, models.MembershipEnrolled).
		Count(total).Error
}

func addParticipant(tx *gorm.DB, roomID, userID uint) error {
	participant := models.ChatRoomParticipant{RoomID: roomID, UserID: userID}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participant).Error
}

func removeParticipant(tx *gorm.DB, roomID, userID uint) error {
	return tx.Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&models.ChatRoomParticipant{}).Error
}

// removeParticipantUnlessMember keeps the chat room seat of a user who still holds another enrolled
// membership in the course, such as a trainer who was also enrolled as a student.
func removeParticipantUnlessMember(tx *gorm.DB, courseID, roomID, userID uint) error {
	var remaining int64
	err := tx.Model(&models.CourseMembership{}).
		Where("course_id = ? AND user_id = ? AND state = ?", courseID, userID, models.MembershipEnrolled).
		Count(&remaining).Error
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	return removeParticipant(tx, roomID, userID)
}
