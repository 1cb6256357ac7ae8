package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/repository"
	"github.com/noah-isme/gema-classroom/pkg/mailer"
)

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// ProvisionedUser is the result of resolving a participant by email.
type ProvisionedUser struct {
	User              models.User
	Created           bool
	TemporaryPassword string
}

// UserProvisioner finds a user by email or creates one with a temporary password.
type UserProvisioner struct {
	users  repository.UserRepository
	mailer Mailer
	logger zerolog.Logger
	cost   int
}

// NewUserProvisioner constructs a provisioner. A nil mailer disables invitations.
func NewUserProvisioner(users repository.UserRepository, mail Mailer, logger zerolog.Logger) *UserProvisioner {
	return &UserProvisioner{
		users:  users,
		mailer: mail,
		logger: logger.With().Str("component", "user_provisioner").Logger(),
		cost:   bcrypt.DefaultCost,
	}
}

// ResolveOrCreate returns the user registered under email, creating it when unknown.
func (p *UserProvisioner) ResolveOrCreate(ctx context.Context, email, name, role string) (ProvisionedUser, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	user, err := p.users.GetByEmail(ctx, normalized)
	if err == nil {
		return ProvisionedUser{User: user}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ProvisionedUser{}, err
	}

	password := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return ProvisionedUser{}, fmt.Errorf("hash temporary password: %w", err)
	}

	user = models.User{
		Name:         strings.TrimSpace(name),
		Email:        normalized,
		PasswordHash: string(hash),
		UserType:     userTypeForRole(role),
	}
	if err := p.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Created concurrently by another request.
			existing, getErr := p.users.GetByEmail(ctx, normalized)
			if getErr != nil {
				return ProvisionedUser{}, getErr
			}
			return ProvisionedUser{User: existing}, nil
		}
		return ProvisionedUser{}, err
	}

	p.logger.Info().Uint("user_id", user.ID).Str("email", maskEmailAddress(normalized)).Str("role", role).Msg("participant account provisioned")
	return ProvisionedUser{User: user, Created: true, TemporaryPassword: password}, nil
}

// Invite emails the temporary credentials of a freshly provisioned user. Failures are logged only.
func (p *UserProvisioner) Invite(ctx context.Context, provisioned ProvisionedUser, courseName string) {
	if p.mailer == nil || !provisioned.Created {
		return
	}

	msg := mailer.Message{
		ToName:    provisioned.User.Name,
		ToAddress: provisioned.User.Email,
		Subject:   fmt.Sprintf("You have been added to %s", courseName),
		TextContent: fmt.Sprintf(
			"Hello %s,\n\nAn account was created for you to join %s.\nEmail: %s\nTemporary password: %s\n\nPlease change it after signing in.",
			provisioned.User.Name, courseName, provisioned.User.Email, provisioned.TemporaryPassword,
		),
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		p.logger.Warn().Err(err).Uint("user_id", provisioned.User.ID).Str("email", maskEmailAddress(provisioned.User.Email)).Msg("failed to send participant invitation")
	}
}

func userTypeForRole(role string) string {
	switch role {
	case models.RoleTrainer:
		return models.UserTypeTeacher
	case models.RoleVolunteer:
		return models.UserTypeVolunteer
	default:
		return models.UserTypeStudent
	}
}
