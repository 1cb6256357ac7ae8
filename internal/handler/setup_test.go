package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/config"
	"github.com/noah-isme/gema-classroom/internal/handler"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/repository"
	"github.com/noah-isme/gema-classroom/internal/router"
	"github.com/noah-isme/gema-classroom/internal/service"
	"github.com/noah-isme/gema-classroom/internal/testutil"
	"github.com/noah-isme/gema-classroom/pkg/mailer"
)

const (
	headerUser = "X-Test-User"
	headerRole = "X-Test-Role"
	headerOrg  = "X-Test-Org"
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details struct {
		Kind  string `json:"kind"`
		Field string `json:"field"`
	} `json:"details"`
}

type caller struct {
	userID uint
	role   string
	orgID  uint
}

var anonymous = caller{}

// stubAuth stands in for JWT verification and copies identity headers into locals.
func stubAuth(c *fiber.Ctx) error {
	if raw := c.Get(headerUser); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err == nil {
			c.Locals("user_id", uint(id))
		}
	}
	if role := c.Get(headerRole); role != "" {
		c.Locals("user_role", role)
	}
	if raw := c.Get(headerOrg); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err == nil {
			c.Locals("organization_id", uint(id))
		}
	}
	return c.Next()
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.NewDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	organizationRepo := repository.NewOrganizationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	fanout := service.NewRoomFanout(nil, "", nil, logger)
	cache := service.NewCourseCache(nil, "", time.Minute, logger)
	provisioner := service.NewUserProvisioner(userRepo, mailer.NewLog(logger), logger)

	organizationService := service.NewOrganizationService(organizationRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, organizationRepo, membershipRepo, chatRepo, cache, validate, logger)
	enrollmentService := service.NewEnrollmentService(courseRepo, membershipRepo, userRepo, provisioner, fanout, cache, validate, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, courseRepo, validate, logger)
	submissionService := service.NewSubmissionService(assessmentRepo, submissionRepo, userRepo, validate, logger)
	announcementService := service.NewAnnouncementService(repository.NewAnnouncementRepository(db), courseRepo, fanout, validate, logger)
	noteService := service.NewNoteService(repository.NewNoteRepository(db), courseRepo, nil, validate, logger)
	chatService := service.NewChatService(chatRepo, fanout, nil, "", validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	router.Register(app, config.Config{AppName: "Test", AppEnv: "test", JWTSecret: "secret"}, router.Dependencies{
		OrganizationHandler:   handler.NewOrganizationHandler(organizationService, logger),
		CourseHandler:         handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler:     handler.NewEnrollmentHandler(enrollmentService, logger),
		AssessmentHandler:     handler.NewAssessmentHandler(assessmentService, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, logger),
		AnnouncementHandler:   handler.NewAnnouncementHandler(announcementService, logger),
		NoteHandler:           handler.NewNoteHandler(noteService, logger),
		ChatHandler:           handler.NewChatHandler(chatService, logger),
		JWTMiddleware:         stubAuth,
		OptionalJWTMiddleware: stubAuth,
	})

	return &testApp{app: app, db: db}
}

func (a *testApp) do(t *testing.T, method, path string, who caller, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	applyCaller(req.Header, who)

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	var payload envelope
	decodeResponse(t, resp, &payload)
	return resp.StatusCode, payload
}

func applyCaller(header http.Header, who caller) {
	if who.userID != 0 {
		header.Set(headerUser, strconv.FormatUint(uint64(who.userID), 10))
	}
	if who.role != "" {
		header.Set(headerRole, who.role)
	}
	if who.orgID != 0 {
		header.Set(headerOrg, strconv.FormatUint(uint64(who.orgID), 10))
	}
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target), string(data))
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

// createOrganizationAndCourse provisions an organization and a course through the API and returns an admin caller for it.
func (a *testApp) createOrganizationAndCourse(t *testing.T, limit int) (caller, uint, uint) {
	t.Helper()

	root := caller{userID: 9000, role: "admin"}
	status, payload := a.do(t, http.MethodPost, "/api/v2/organizations", root, map[string]interface{}{
		"name":          "Org " + strconv.FormatInt(time.Now().UnixNano(), 36),
		"contact_email": "office@example.org",
	})
	require.Equal(t, fiber.StatusCreated, status, payload.Message)

	var organization struct {
		ID uint `json:"id"`
	}
	decodeData(t, payload, &organization)

	admin := caller{userID: 9000, role: "admin", orgID: organization.ID}
	start := time.Now().UTC().Add(24 * time.Hour)
	status, payload = a.do(t, http.MethodPost, "/api/v2/courses", admin, map[string]interface{}{
		"name":             "Intro to Go",
		"description":      "Concurrency and interfaces",
		"category":         "programming",
		"start_date":       start.Format(time.RFC3339),
		"end_date":         start.Add(30 * 24 * time.Hour).Format(time.RFC3339),
		"enrollment_limit": limit,
	})
	require.Equal(t, fiber.StatusCreated, status, payload.Message)

	var course struct {
		ID         uint  `json:"id"`
		ChatRoomID *uint `json:"chat_room_id"`
	}
	decodeData(t, payload, &course)
	require.NotNil(t, course.ChatRoomID)

	return admin, course.ID, *course.ChatRoomID
}

// addParticipant adds a participant by email and returns the user id.
func (a *testApp) addParticipant(t *testing.T, admin caller, courseID uint, role, email string) uint {
	t.Helper()

	status, payload := a.do(t, http.MethodPost, coursePath(courseID, "/participants"), admin, map[string]string{
		"role":  role,
		"email": email,
		"name":  "Participant " + role,
	})
	require.Equal(t, fiber.StatusOK, status, payload.Message)

	var added struct {
		ParticipantID uint `json:"participant_id"`
	}
	decodeData(t, payload, &added)
	require.NotZero(t, added.ParticipantID)
	return added.ParticipantID
}

func coursePath(courseID uint, suffix string) string {
	return "/api/v2/courses/" + strconv.FormatUint(uint64(courseID), 10) + suffix
}

func startFiberServer(t *testing.T, app *fiber.App) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = app.Listener(listener)
	}()
	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	return listener.Addr().String()
}
