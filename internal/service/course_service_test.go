package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
	"github.com/noah-isme/gema-classroom/internal/testutil"
)

func TestOrganizationServiceCreateAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewOrganizationService(repository.NewOrganizationRepository(db), newTestValidator(), testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.OrganizationCreateRequest{Name: "Gema Academy", ContactEmail: "Admin@Gema.dev"})
	require.NoError(t, err)
	require.Equal(t, "admin@gema.dev", created.ContactEmail)

	_, err = svc.Create(ctx, dto.OrganizationCreateRequest{Name: "Gema Academy", ContactEmail: "other@gema.dev"})
	require.ErrorIs(t, err, ErrOrganizationExists)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Name, fetched.Name)

	_, err = svc.Get(ctx, 9999)
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestCourseServiceLifecycle(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	db := testutil.NewDB(t)
	org := seedOrganization(t, db)
	other := seedOrganization(t, db)
	memberships := repository.NewMembershipRepository(db)
	cache := NewCourseCache(redisClient, "test", time.Minute, testLogger())
	svc := NewCourseService(
		repository.NewCourseRepository(db),
		repository.NewOrganizationRepository(db),
		memberships,
		repository.NewChatRepository(db),
		cache,
		newTestValidator(),
		testLogger(),
	)
	ctx := context.Background()

	start := time.Now().Add(24 * time.Hour)
	_, err = svc.Create(ctx, org.ID, dto.CourseCreateRequest{
		Name: "Backwards", Description: "d", Category: "c", StartDate: start, EndDate: start.Add(-time.Hour),
	})
	require.Error(t, err)

	_, err = svc.Create(ctx, 9999, dto.CourseCreateRequest{
		Name: "Orphan", Description: "d", Category: "c", StartDate: start, EndDate: start.Add(time.Hour),
	})
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	created, err := svc.Create(ctx, org.ID, dto.CourseCreateRequest{
		Name: "Distributed Systems", Description: "Consensus", Category: "cs", StartDate: start, EndDate: start.Add(720 * time.Hour), EnrollmentLimit: 30,
	})
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusUpcoming, created.Status)
	require.NotNil(t, created.ChatRoomID)

	room, err := svc.ChatRoom(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, *created.ChatRoomID, room.ChatRoomID)
	require.Empty(t, room.Participants)

	student := seedUser(t, db, "roster@example.com")
	_, err = memberships.AddParticipant(ctx, created.ID, student.ID, models.RoleStudent, created.ChatRoomID, 0)
	require.NoError(t, err)

	detail, err := svc.Details(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.EnrolledStudents, 1)
	require.True(t, server.Exists(fmt.Sprintf("test:course:%d:details", created.ID)))

	students, err := svc.Students(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, student.ID, students[0].StudentID)

	_, err = svc.UpdateStatus(ctx, other.ID, created.ID, dto.CourseStatusRequest{Status: models.CourseStatusOngoing})
	require.ErrorIs(t, err, ErrCourseNotFound)

	updated, err := svc.UpdateStatus(ctx, org.ID, created.ID, dto.CourseStatusRequest{Status: models.CourseStatusOngoing})
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusOngoing, updated.Status)
	require.False(t, server.Exists(fmt.Sprintf("test:course:%d:details", created.ID)))

	_, err = svc.UpdateSessionLink(ctx, org.ID, created.ID, dto.SessionLinkRequest{Link: "not a url"})
	require.Error(t, err)

	linked, err := svc.UpdateSessionLink(ctx, org.ID, created.ID, dto.SessionLinkRequest{Link: "https://meet.example.com/abc"})
	require.NoError(t, err)
	require.Equal(t, "https://meet.example.com/abc", linked.SessionLink)

	listed, err := svc.ListByOrganization(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = svc.Details(ctx, 9999)
	require.ErrorIs(t, err, ErrCourseNotFound)
}
