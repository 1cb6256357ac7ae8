package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/testutil"
)

func newSubmission(assessmentID, courseID, userID uint) models.Submission {
	id := userID
	return models.Submission{
		AssessmentID: assessmentID,
		SubmitterKey: models.UserSubmitterKey(userID),
		UserID:       &id,
		CourseID:     courseID,
		Kind:         models.AssessmentKindAssignment,
		Results: datatypes.JSONSlice[models.SubmissionResult]{
			{QuestionID: 1, QuestionText: "2+2?", UserAnswer: datatypes.JSON(`"4"`), CorrectAnswer: datatypes.JSON(`"4"`), MarksObtained: 2, IsCorrect: true},
		},
		TotalMarksObtained: 2,
		SubmittedAt:        time.Now(),
		Status:             models.SubmissionStatusSubmitted,
	}
}

func TestSubmissionRepositoryUniquePerSubmitter(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	first := newSubmission(10, 1, 7)
	require.NoError(t, repo.Create(ctx, &first))

	duplicate := newSubmission(10, 1, 7)
	err := repo.Create(ctx, &duplicate)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	other := newSubmission(11, 1, 7)
	require.NoError(t, repo.Create(ctx, &other))

	found, err := repo.GetBySubmitter(ctx, 10, models.UserSubmitterKey(7))
	require.NoError(t, err)
	require.Equal(t, first.ID, found.ID)
	require.Len(t, found.Results, 1)
	require.True(t, found.Results[0].IsCorrect)

	_, err = repo.GetBySubmitter(ctx, 10, models.UserSubmitterKey(8))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryListings(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	a := newSubmission(10, 1, 7)
	b := newSubmission(10, 1, 8)
	c := newSubmission(20, 2, 7)
	c.Kind = models.AssessmentKindTest
	for _, item := range []*models.Submission{&a, &b, &c} {
		require.NoError(t, repo.Create(ctx, item))
	}

	byCourse, err := repo.ListByCourse(ctx, 1, models.AssessmentKindAssignment)
	require.NoError(t, err)
	require.Len(t, byCourse, 2)

	byUser, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
}

func TestSubmissionRepositoryMarkGraded(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submission := newSubmission(10, 1, 7)
	require.NoError(t, repo.Create(ctx, &submission))

	graded, err := repo.MarkGraded(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, graded.Status)

	again, err := repo.MarkGraded(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, again.Status)

	_, err = repo.MarkGraded(ctx, submission.ID+50)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
