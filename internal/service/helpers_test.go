package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
	"github.com/noah-isme/gema-classroom/pkg/mailer"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordedEvent struct {
	RoomID  uint
	Event   string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, roomID uint, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{RoomID: roomID, Event: event, Payload: payload})
}

func (p *recordingPublisher) Events() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]recordedEvent, len(p.events))
	copy(out, p.events)
	return out
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *recordingMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func seedOrganization(t *testing.T, db *gorm.DB) models.Organization {
	t.Helper()

	org := models.Organization{Name: "Org " + uuid.NewString(), ContactEmail: "org@example.com"}
	require.NoError(t, db.Create(&org).Error)
	return org
}

func seedCourse(t *testing.T, db *gorm.DB, organizationID uint, limit int) models.Course {
	t.Helper()

	course := models.Course{
		OrganizationID:  organizationID,
		Name:            "Intro to Go",
		Description:     "Basics",
		Category:        "programming",
		Status:          models.CourseStatusUpcoming,
		StartDate:       time.Now(),
		EndDate:         time.Now().Add(30 * 24 * time.Hour),
		EnrollmentLimit: limit,
	}
	require.NoError(t, repository.NewCourseRepository(db).Create(context.Background(), &course))
	require.NotNil(t, course.ChatRoomID)
	return course
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	user := models.User{Name: email, Email: email, PasswordHash: "x", UserType: models.UserTypeStudent}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedAssessment stores two questions: a multiple-choice worth 2 marks answered "B" and a short answer worth 3 answered 5.
func seedAssessment(t *testing.T, db *gorm.DB, courseID uint, kind, testType string, deadline time.Time) models.Assessment {
	t.Helper()

	assessment := models.Assessment{
		CourseID:   courseID,
		Kind:       kind,
		TestType:   testType,
		Title:      "Checkpoint",
		Deadline:   deadline,
		TotalMarks: 5,
	}
	questions := []models.Question{
		{
			Type:          models.QuestionTypeMultipleChoice,
			Text:          "Pick B",
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: []byte(`"B"`),
			Marks:         2,
		},
		{
			Type:          models.QuestionTypeShortAnswer,
			Text:          "2 + 3",
			CorrectAnswer: []byte(`5`),
			Marks:         3,
		},
	}
	require.NoError(t, repository.NewAssessmentRepository(db).CreateWithQuestions(context.Background(), &assessment, questions))
	require.Len(t, assessment.Questions, 2)
	return assessment
}

func newTestValidator() *validator.Validate {
	return validator.New()
}

func rawJSON(value string) json.RawMessage {
	return json.RawMessage(value)
}
