package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/config"
	"github.com/noah-isme/gema-classroom/internal/database"
	"github.com/noah-isme/gema-classroom/internal/handler"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/repository"
	"github.com/noah-isme/gema-classroom/internal/router"
	"github.com/noah-isme/gema-classroom/internal/service"
	cloud "github.com/noah-isme/gema-classroom/pkg/cloudinary"
	"github.com/noah-isme/gema-classroom/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient == nil {
		logger.Warn().Msg("redis url not configured, roster cache and cross-node fan-out over redis disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cloudService, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudService
	} else {
		logger.Warn().Msg("cloudinary not configured, file notes disabled")
	}

	var mail service.Mailer = mailer.NewLog(logger)
	if cfg.SendGridAPIKey != "" {
		sendgrid, err := mailer.NewSendGrid(mailer.Config{
			APIKey:      cfg.SendGridAPIKey,
			FromName:    cfg.MailFromName,
			FromAddress: cfg.MailFromAddress,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create sendgrid mailer: %v", err)
		}
		mail = sendgrid
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	organizationRepo := repository.NewOrganizationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	fanoutCtx, stopFanout := context.WithCancel(context.Background())
	fanout := service.NewRoomFanout(redisClient, cfg.EventChannel, natsConn, logger)
	fanout.Start(fanoutCtx)

	courseCache := service.NewCourseCache(redisClient, cfg.EventChannel, cfg.RosterCacheTTL, logger)
	provisioner := service.NewUserProvisioner(userRepo, mail, logger)

	organizationService := service.NewOrganizationService(organizationRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, organizationRepo, membershipRepo, chatRepo, courseCache, validate, logger)
	enrollmentService := service.NewEnrollmentService(courseRepo, membershipRepo, userRepo, provisioner, fanout, courseCache, validate, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, courseRepo, validate, logger)
	submissionService := service.NewSubmissionService(assessmentRepo, submissionRepo, userRepo, validate, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, courseRepo, fanout, validate, logger)
	noteService := service.NewNoteService(noteRepo, courseRepo, uploader, validate, logger)
	chatService := service.NewChatService(chatRepo, fanout, redisClient, cfg.EventChannel, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		OrganizationHandler:   handler.NewOrganizationHandler(organizationService, logger),
		CourseHandler:         handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler:     handler.NewEnrollmentHandler(enrollmentService, logger),
		AssessmentHandler:     handler.NewAssessmentHandler(assessmentService, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, logger),
		AnnouncementHandler:   handler.NewAnnouncementHandler(announcementService, logger),
		NoteHandler:           handler.NewNoteHandler(noteService, logger),
		ChatHandler:           handler.NewChatHandler(chatService, logger),
		HealthProbes:          healthProbes(db, redisClient, natsConn),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		OptionalJWTMiddleware: middleware.JWTOptional(cfg.JWTSecret),
		SubmissionLimiter:     middleware.RateLimit("submissions", cfg.SubmissionRateLimit, cfg.SubmissionRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)

	stopFanout()
	if natsConn != nil {
		natsConn.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) []handler.HealthProbe {
	probes := []handler.HealthProbe{{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	if redisClient != nil {
		probes = append(probes, handler.HealthProbe{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	if natsConn != nil {
		probes = append(probes, handler.HealthProbe{
			Name: "nats",
			Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return nats.ErrConnectionClosed
				}
				return nil
			},
		})
	}

	return probes
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
