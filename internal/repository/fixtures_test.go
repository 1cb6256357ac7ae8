package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/models"
)

func seedCourse(t *testing.T, db *gorm.DB, limit int) models.Course {
	t.Helper()

	org := models.Organization{Name: fmt.Sprintf("Org %d", time.Now().UnixNano()), ContactEmail: "org@example.com"}
	require.NoError(t, db.Create(&org).Error)

	course := models.Course{
		OrganizationID:  org.ID,
		Name:            "Intro to Go",
		Status:          models.CourseStatusUpcoming,
		StartDate:       time.Now(),
		EndDate:         time.Now().Add(30 * 24 * time.Hour),
		EnrollmentLimit: limit,
	}
	require.NoError(t, NewCourseRepository(db).Create(context.Background(), &course))
	return course
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{Name: email, Email: email, PasswordHash: "x", UserType: models.UserTypeStudent}
	require.NoError(t, db.Create(&user).Error)
	return user
}
