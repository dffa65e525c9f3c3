package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/cleantrack-dev/cleantrack/internal/models"
	"github.com/cleantrack-dev/cleantrack/internal/policy"
	"github.com/cleantrack-dev/cleantrack/internal/types"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

type SignupInput struct {
	Name        string
	Email       string
	Password    string
	CompanyName string
}

// LoginInput carries either Email or, when AsEmployee is set, Name.
type LoginInput struct {
	Email      string
	Name       string
	Password   string
	AsEmployee bool
}

// Signup registers a new owner on the default plan and logs them in.
func (s *Service) Signup(ctx context.Context, in SignupInput) (types.AuthResponse, error) {
	const op = "services.Signup"
	log := s.log.WithField("operation", op)

	name, email, err := validateIdentity(in.Name, in.Email, in.Password)

	if err != nil {
		return types.AuthResponse{}, err
	}

	hash, err := s.hashPassword(in.Password)

	if err != nil {
		return types.AuthResponse{}, err
	}

	owner := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleOwner,
		Subscription: models.DefaultSubscription(),
	}

	if company := strings.TrimSpace(in.CompanyName); company != "" {
		owner.CompanyName = &company
	}

	if err := s.repo.CreateUser(ctx, &owner); err != nil {
		return types.AuthResponse{}, err
	}

	log.WithField("user_id", owner.ID).Info("owner signed up")

	return s.issue(owner)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (types.AuthResponse, error) {
	const op = "services.Login"
	log := s.log.WithField("operation", op)

	if in.Password == "" {
		return types.AuthResponse{}, policy.Validation("password", "password is required")
	}

	var (
		user models.User
		err  error
	)

	if in.AsEmployee {
		user, err = s.employeeByName(ctx, in.Name, in.Password)
	} else {
		user, err = s.userByEmail(ctx, in.Email, in.Password)
	}

	if err != nil {
		return types.AuthResponse{}, err
	}

	if user.Role == models.RoleOwner && !policy.IsSubscriptionActive(user.Subscription, s.now()) {
		log.WithField("user_id", user.ID).Info("login refused, subscription expired")
		return types.AuthResponse{}, policy.SubscriptionExpired(user.Subscription.ExpiresAt)
	}

	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, actor Actor) (types.UserResponse, error) {
	user, err := s.repo.GetUser(ctx, actor.ID)

	if err != nil {
		return types.UserResponse{}, err
	}

	return types.NewUserResponse(user, s.now()), nil
}

// EnsureAdmin creates the configured admin account unless the email is
// already taken. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	const op = "services.EnsureAdmin"
	log := s.log.WithField("operation", op)

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	name, email, err := validateIdentity(name, email, password)

	if err != nil {
		return false, err
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)

	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return false, policy.Validation("email", "%s belongs to a %s account", email, existing.Role)
		}
		return false, nil
	case !errors.Is(err, policy.ErrNotFound):
		return false, err
	}

	hash, err := s.hashPassword(password)

	if err != nil {
		return false, err
	}

	admin := models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin}

	if err := s.repo.CreateUser(ctx, &admin); err != nil {
		return false, err
	}

	log.WithField("user_id", admin.ID).Info("admin account created")

	return true, nil
}

func (s *Service) userByEmail(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)

	if email == "" {
		return models.User{}, policy.Validation("email", "email is required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)

	if errors.Is(err, policy.ErrNotFound) {
		return user, policy.InvalidCredentials()
	}

	if err != nil {
		return user, err
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return user, policy.InvalidCredentials()
	}

	return user, nil
}

// employeeByName matches the name case-insensitively. Names are not unique,
// so the first candidate whose password matches wins.
func (s *Service) employeeByName(ctx context.Context, name, password string) (models.User, error) {
	if strings.TrimSpace(name) == "" {
		return models.User{}, policy.Validation("name", "name is required for employee login")
	}

	candidates, err := s.repo.FindEmployeesByName(ctx, name)

	if err != nil {
		return models.User{}, err
	}

	for _, c := range candidates {
		if s.hasher.Compare(c.PasswordHash, password) {
			return c, nil
		}
	}

	return models.User{}, policy.InvalidCredentials()
}

func (s *Service) issue(user models.User) (types.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)

	if err != nil {
		return types.AuthResponse{}, err
	}

	return types.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      types.NewUserResponse(user, s.now()),
	}, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)

	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", policy.Validation("password", "password must be at most 72 bytes")
	}

	return hash, err
}

func validateIdentity(name, email, password string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return "", "", policy.Validation("name", "name is required")
	}

	if email == "" {
		return "", "", policy.Validation("email", "email is required")
	}

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", "", policy.Validation("email", "email is not a valid address")
	}

	if len(password) < MinPasswordLength {
		return "", "", policy.Validation("password", "password must be at least %d characters", MinPasswordLength)
	}

	return name, email, nil
}
