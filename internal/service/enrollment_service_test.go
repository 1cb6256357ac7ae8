package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
	"github.com/noah-isme/gema-classroom/internal/testutil"
)

type enrollmentFixture struct {
	db        *gorm.DB
	org       models.Organization
	course    models.Course
	publisher *recordingPublisher
	mail      *recordingMailer
	cache     *CourseCache
	svc       EnrollmentService
	courses   CourseService
	chat      repository.ChatRepository
}

func newEnrollmentFixture(t *testing.T, limit int) *enrollmentFixture {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	db := testutil.NewDB(t)
	org := seedOrganization(t, db)
	course := seedCourse(t, db, org.ID, limit)

	memberships := repository.NewMembershipRepository(db)
	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	chat := repository.NewChatRepository(db)
	publisher := &recordingPublisher{}
	mail := &recordingMailer{}
	cache := NewCourseCache(redisClient, "test", time.Minute, testLogger())
	provisioner := NewUserProvisioner(users, mail, testLogger())
	provisioner.cost = bcrypt.MinCost
	validate := newTestValidator()

	return &enrollmentFixture{
		db:        db,
		org:       org,
		course:    course,
		publisher: publisher,
		mail:      mail,
		cache:     cache,
		chat:      chat,
		svc:       NewEnrollmentService(courses, memberships, users, provisioner, publisher, cache, validate, testLogger()),
		courses:   NewCourseService(courses, repository.NewOrganizationRepository(db), memberships, chat, cache, validate, testLogger()),
	}
}

func (f *enrollmentFixture) addStudent(t *testing.T, email string) dto.ParticipantAddResponse {
	t.Helper()

	resp, err := f.svc.AddParticipant(context.Background(), f.org.ID, f.course.ID, dto.ParticipantAddRequest{
		Role:  models.RoleStudent,
		Email: email,
		Name:  "Student " + email,
	})
	require.NoError(t, err)
	return resp
}

func TestAddParticipantProvisionsAndIsIdempotent(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	ctx := context.Background()

	first := f.addStudent(t, "New.Student@Example.com")
	require.Equal(t, EnrollmentActionAdded, first.Action)
	require.Equal(t, f.course.ID, first.Course.ID)
	require.NotZero(t, first.ParticipantID)

	var user models.User
	require.NoError(t, f.db.First(&user, first.ParticipantID).Error)
	require.Equal(t, "new.student@example.com", user.Email)
	require.Equal(t, models.UserTypeStudent, user.UserType)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, user.Email, sent[0].ToAddress)
	require.Contains(t, sent[0].Subject, f.course.Name)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	require.Equal(t, dto.RoomEventParticipantAdded, events[0].Event)
	require.Equal(t, *f.course.ChatRoomID, events[0].RoomID)
	require.Equal(t, dto.ParticipantEvent{UserID: user.ID, Name: user.Name, Role: models.RoleStudent}, events[0].Payload)

	second := f.addStudent(t, "new.student@example.com")
	require.Equal(t, EnrollmentActionUnchanged, second.Action)
	require.Equal(t, first.ParticipantID, second.ParticipantID)
	require.Len(t, f.mail.Sent(), 1)
	require.Len(t, f.publisher.Events(), 1)

	participants, err := f.chat.ListParticipants(ctx, *f.course.ChatRoomID)
	require.NoError(t, err)
	require.Equal(t, []uint{user.ID}, participants)

	detail, err := f.courses.Details(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, detail.EnrolledStudents, 1)
	require.Equal(t, 1, detail.EnrolledCount)
}

func TestAddParticipantExistingUserIsNotInvited(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	existing := seedUser(t, f.db, "trainer@example.com")

	resp, err := f.svc.AddParticipant(context.Background(), f.org.ID, f.course.ID, dto.ParticipantAddRequest{
		Role:  models.RoleTrainer,
		Email: "trainer@example.com",
		Name:  "Trainer",
	})
	require.NoError(t, err)
	require.Equal(t, existing.ID, resp.ParticipantID)
	require.Equal(t, models.RoleTrainer, resp.Role)
	require.Empty(t, f.mail.Sent())

	detail, err := f.courses.Details(context.Background(), f.course.ID)
	require.NoError(t, err)
	require.Len(t, detail.Instructors, 1)
	require.Empty(t, detail.EnrolledStudents)
}

func TestToggleEnrollmentRoundTrip(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	ctx := context.Background()
	student := f.addStudent(t, "toggle@example.com")

	_, err := f.courses.Details(ctx, f.course.ID)
	require.NoError(t, err)

	removed, err := f.svc.ToggleEnrollment(ctx, f.org.ID, f.course.ID, student.ParticipantID)
	require.NoError(t, err)
	require.Equal(t, EnrollmentActionRemoved, removed.Action)
	require.Equal(t, models.MembershipRemoved, removed.State)

	inRoom, err := f.chat.IsParticipant(ctx, *f.course.ChatRoomID, student.ParticipantID)
	require.NoError(t, err)
	require.False(t, inRoom)

	detail, err := f.courses.Details(ctx, f.course.ID)
	require.NoError(t, err)
	require.Empty(t, detail.EnrolledStudents)
	require.Len(t, detail.EnrolledStudentsRemoved, 1)

	userSide, err := f.svc.EnrolledCourses(ctx, student.ParticipantID)
	require.NoError(t, err)
	require.Empty(t, userSide.EnrolledCourses)
	require.Len(t, userSide.EnrolledCoursesRemoved, 1)

	reenrolled, err := f.svc.ToggleEnrollment(ctx, f.org.ID, f.course.ID, student.ParticipantID)
	require.NoError(t, err)
	require.Equal(t, EnrollmentActionReenrolled, reenrolled.Action)

	inRoom, err = f.chat.IsParticipant(ctx, *f.course.ChatRoomID, student.ParticipantID)
	require.NoError(t, err)
	require.True(t, inRoom)

	userSide, err = f.svc.EnrolledCourses(ctx, student.ParticipantID)
	require.NoError(t, err)
	require.Len(t, userSide.EnrolledCourses, 1)
	require.Empty(t, userSide.EnrolledCoursesRemoved)

	events := f.publisher.Events()
	require.Len(t, events, 3)
	require.Equal(t, dto.RoomEventParticipantRemoved, events[1].Event)
	require.Equal(t, dto.RoomEventParticipantAdded, events[2].Event)
}

func TestToggleEnrollmentNeverEnrolled(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	stranger := seedUser(t, f.db, "stranger@example.com")

	_, err := f.svc.ToggleEnrollment(context.Background(), f.org.ID, f.course.ID, stranger.ID)
	require.ErrorIs(t, err, ErrNotEnrolledOrRemoved)
	require.Empty(t, f.publisher.Events())
}

func TestEnrollmentRejectsForeignOrganization(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	student := f.addStudent(t, "scoped@example.com")
	other := seedOrganization(t, f.db)

	_, err := f.svc.ToggleEnrollment(context.Background(), other.ID, f.course.ID, student.ParticipantID)
	require.ErrorIs(t, err, ErrCourseNotFound)

	_, err = f.svc.AddParticipant(context.Background(), other.ID, f.course.ID, dto.ParticipantAddRequest{
		Role: models.RoleStudent, Email: "x@example.com", Name: "X",
	})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSetEnrollmentStateIsIdempotent(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	ctx := context.Background()
	student := f.addStudent(t, "state@example.com")
	stranger := seedUser(t, f.db, "nobody@example.com")

	unchanged, err := f.svc.SetEnrollmentState(ctx, f.org.ID, f.course.ID, student.ParticipantID, dto.EnrollmentStateRequest{State: models.MembershipEnrolled})
	require.NoError(t, err)
	require.Equal(t, EnrollmentActionUnchanged, unchanged.Action)

	removed, err := f.svc.SetEnrollmentState(ctx, f.org.ID, f.course.ID, student.ParticipantID, dto.EnrollmentStateRequest{State: models.MembershipRemoved})
	require.NoError(t, err)
	require.Equal(t, EnrollmentActionRemoved, removed.Action)

	again, err := f.svc.SetEnrollmentState(ctx, f.org.ID, f.course.ID, student.ParticipantID, dto.EnrollmentStateRequest{State: models.MembershipRemoved})
	require.NoError(t, err)
	require.Equal(t, EnrollmentActionUnchanged, again.Action)
	require.Equal(t, models.MembershipRemoved, again.State)

	_, err = f.svc.SetEnrollmentState(ctx, f.org.ID, f.course.ID, stranger.ID, dto.EnrollmentStateRequest{State: models.MembershipRemoved})
	require.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.svc.SetEnrollmentState(ctx, f.org.ID, f.course.ID, stranger.ID, dto.EnrollmentStateRequest{State: models.MembershipEnrolled})
	require.ErrorIs(t, err, ErrNotEnrolledOrRemoved)

	_, err = f.svc.SetEnrollmentState(ctx, f.org.ID, f.course.ID, student.ParticipantID, dto.EnrollmentStateRequest{State: "paused"})
	require.Error(t, err)
}

func TestAddParticipantReenrollsRemovedStudent(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	ctx := context.Background()
	student := f.addStudent(t, "comeback@example.com")

	_, err := f.svc.ToggleEnrollment(ctx, f.org.ID, f.course.ID, student.ParticipantID)
	require.NoError(t, err)

	again := f.addStudent(t, "comeback@example.com")
	require.Equal(t, EnrollmentActionReenrolled, again.Action)

	detail, err := f.courses.Details(ctx, f.course.ID)
	require.NoError(t, err)
	require.Len(t, detail.EnrolledStudents, 1)
	require.Empty(t, detail.EnrolledStudentsRemoved)
}

func TestAddParticipantEnforcesLimitForNewStudentsOnly(t *testing.T) {
	f := newEnrollmentFixture(t, 1)
	ctx := context.Background()
	f.addStudent(t, "first@example.com")

	_, err := f.svc.AddParticipant(ctx, f.org.ID, f.course.ID, dto.ParticipantAddRequest{
		Role: models.RoleStudent, Email: "second@example.com", Name: "Second",
	})
	require.ErrorIs(t, err, ErrEnrollmentLimitReached)

	volunteer, err := f.svc.AddParticipant(ctx, f.org.ID, f.course.ID, dto.ParticipantAddRequest{
		Role: models.RoleVolunteer, Email: "helper@example.com", Name: "Helper",
	})
	require.NoError(t, err)
	require.Equal(t, EnrollmentActionAdded, volunteer.Action)

	again := f.addStudent(t, "first@example.com")
	require.Equal(t, EnrollmentActionUnchanged, again.Action)
}

type staleMembershipRepo struct {
	repository.MembershipRepository
}

func (staleMembershipRepo) Transition(ctx context.Context, courseID, studentID uint, from, to string, chatRoomID *uint) (models.CourseMembership, error) {
	return models.CourseMembership{}, repository.ErrStaleMembership
}

func TestToggleEnrollmentReportsConflict(t *testing.T) {
	f := newEnrollmentFixture(t, 0)
	student := f.addStudent(t, "race@example.com")

	stale := staleMembershipRepo{MembershipRepository: repository.NewMembershipRepository(f.db)}
	svc := NewEnrollmentService(
		repository.NewCourseRepository(f.db),
		stale,
		repository.NewUserRepository(f.db),
		NewUserProvisioner(repository.NewUserRepository(f.db), nil, testLogger()),
		f.publisher,
		nil,
		newTestValidator(),
		testLogger(),
	)

	before := len(f.publisher.Events())
	_, err := svc.ToggleEnrollment(context.Background(), f.org.ID, f.course.ID, student.ParticipantID)
	require.ErrorIs(t, err, ErrEnrollmentConflict)
	require.Len(t, f.publisher.Events(), before)
}

func TestEnrolledCoursesUnknownUser(t *testing.T) {
	f := newEnrollmentFixture(t, 0)

	_, err := f.svc.EnrolledCourses(context.Background(), 4242)
	require.ErrorIs(t, err, ErrUserNotFound)
}
