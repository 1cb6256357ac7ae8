package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-classroom/internal/config"
	"github.com/noah-isme/gema-classroom/internal/handler"
	"github.com/noah-isme/gema-classroom/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	OrganizationHandler   *handler.OrganizationHandler
	CourseHandler         *handler.CourseHandler
	EnrollmentHandler     *handler.EnrollmentHandler
	AssessmentHandler     *handler.AssessmentHandler
	SubmissionHandler     *handler.SubmissionHandler
	AnnouncementHandler   *handler.AnnouncementHandler
	NoteHandler           *handler.NoteHandler
	ChatHandler           *handler.ChatHandler
	HealthProbes          []handler.HealthProbe
	JWTMiddleware         fiber.Handler
	OptionalJWTMiddleware fiber.Handler
	SubmissionLimiter     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := orNext(deps.JWTMiddleware)
	optionalJWT := orNext(deps.OptionalJWTMiddleware)
	limiter := orNext(deps.SubmissionLimiter)

	// Each group owns a distinct prefix so group middleware never leaks onto sibling routes.
	if deps.OrganizationHandler != nil {
		organizations := app.Group("/api/v2/organizations", optionalJWT)
		deps.OrganizationHandler.Register(organizations)
	}

	courses := app.Group("/api/v2/courses", optionalJWT)
	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(courses)
	}
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(courses)

		users := app.Group("/api/v2/users", jwtMiddleware)
		deps.EnrollmentHandler.RegisterUserRoutes(users)
	}
	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.RegisterCourseRoutes(courses)
	}
	if deps.NoteHandler != nil {
		deps.NoteHandler.RegisterCourseRoutes(courses)
	}

	assessments := app.Group("/api/v2/assessments", optionalJWT)
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterCourseRoutes(courses)
		deps.AssessmentHandler.Register(assessments)
	}

	if deps.SubmissionHandler != nil {
		submissions := app.Group("/api/v2/submissions", optionalJWT, limiter)
		deps.SubmissionHandler.Register(submissions)
		deps.SubmissionHandler.RegisterCourseRoutes(courses)
		deps.SubmissionHandler.RegisterAssessmentRoutes(assessments)
	}

	if deps.ChatHandler != nil {
		chat := app.Group("/api/v2/chat", jwtMiddleware)
		deps.ChatHandler.Register(chat)
	}
}

func orNext(h fiber.Handler) fiber.Handler {
	if h == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return h
}
