package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/repository"
)

// ErrInvalidCredentials is returned for any authentication failure so the
// response cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService owns accounts across all roles. Each role is backed by its own
// collection, resolved through the role table; identifier and email
// uniqueness is enforced here across every role at registration time, not by
// the stores.
type UserService struct {
	accounts   map[domain.Role]*repository.Collection[domain.UserAccount]
	activities *ActivityService
	hub        *broadcast.Hub
	logger     *slog.Logger
}

// NewUserService creates the user service with one dual-written collection
// per role.
func NewUserService(
	mirror *repository.LocalMirror,
	remote repository.RemoteStore,
	activities *ActivityService,
	hub *broadcast.Hub,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}

	accounts := make(map[domain.Role]*repository.Collection[domain.UserAccount])
	for _, role := range domain.UserRoles() {
		col, _ := domain.CollectionForRole(role)
		accounts[role] = repository.NewCollection[domain.UserAccount](col, mirror, remote, logger)
	}
	return &UserService{
		accounts:   accounts,
		activities: activities,
		hub:        hub,
		logger:     logger,
	}
}

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Role          domain.Role `json:"role"`
	Identifier    string      `json:"identifier"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Password      string      `json:"password"`
	Course        string      `json:"course"`
	AdmissionYear string      `json:"admissionYear"`
	Department    string      `json:"department"`
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Password      *string `json:"password"`
	Course        *string `json:"course"`
	AdmissionYear *string `json:"admissionYear"`
	Department    *string `json:"department"`
}

// Register validates the input, enforces cross-role identifier and email
// uniqueness, hashes the credential and persists the account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.UserAccount, repository.WriteOutcome, error) {
	if input.Role == "" {
		input.Role = domain.DetectRole(input.Identifier)
	}
	if !domain.ValidRole(input.Role) {
		return nil, "", domain.ValidationError{Field: "role", Msg: "unknown role"}
	}

	identifier := strings.TrimSpace(input.Identifier)
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)

	switch input.Role {
	case domain.RoleStudent:
		if !domain.IsValidStudentRegNo(identifier) {
			return nil, "", domain.ValidationError{Field: "identifier", Msg: "registration number must look like UG20/COMS/1184"}
		}
	case domain.RoleStaff:
		if !domain.IsValidStaffID(identifier) {
			return nil, "", domain.ValidationError{Field: "identifier", Msg: "staff ID must look like Staff/Adustech/1001"}
		}
	default:
		// Drivers and admins sign in with their email address.
		if identifier == "" {
			identifier = email
		}
		if !strings.Contains(identifier, "@") {
			return nil, "", domain.ValidationError{Field: "identifier", Msg: "must be an email address"}
		}
	}

	if len(name) < 2 {
		return nil, "", domain.ValidationError{Field: "name", Msg: "too short"}
	}
	if !strings.Contains(email, "@") {
		return nil, "", domain.ValidationError{Field: "email", Msg: "must be an email address"}
	}
	if len(input.Password) < 8 {
		return nil, "", domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}

	if err := s.checkConflicts(ctx, identifier, email, ""); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("failed to register user")
	}

	now := domain.NowISO()
	account := domain.UserAccount{
		ID:            domain.NewID("usr"),
		Role:          input.Role,
		Identifier:    identifier,
		Name:          name,
		Email:         email,
		PasswordHash:  string(hash),
		Course:        input.Course,
		AdmissionYear: input.AdmissionYear,
		Department:    input.Department,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	outcome, err := s.accounts[input.Role].Save(ctx, account)
	if err != nil {
		return nil, "", err
	}

	s.activities.Log(ctx, "user_registered",
		fmt.Sprintf("%s account registered for %s", input.Role, name),
		account.ID,
		map[string]string{"role": string(input.Role)},
	)
	s.hub.TriggerUpdate(broadcast.TypeUserRegistered, account, account.ID)
	return &account, outcome, nil
}

// Authenticate verifies an identifier/password pair.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*domain.UserAccount, error) {
	account, ok := s.FindByIdentifier(ctx, identifier)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// FindByIdentifier looks up an account by its identifying key or contact
// email across every role, in role order.
func (s *UserService) FindByIdentifier(ctx context.Context, identifier string) (*domain.UserAccount, bool) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return nil, false
	}
	for _, role := range domain.UserRoles() {
		for _, account := range s.accounts[role].All(ctx) {
			if strings.EqualFold(account.Identifier, id) || strings.EqualFold(account.Email, id) {
				found := account
				return &found, true
			}
		}
	}
	return nil, false
}

// GetAll returns every account across all roles, oldest first.
func (s *UserService) GetAll(ctx context.Context) []domain.UserAccount {
	out := []domain.UserAccount{}
	for _, role := range domain.UserRoles() {
		out = append(out, s.accounts[role].All(ctx)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

// Update merges a partial update onto the stored account.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput, actor string) (*domain.UserAccount, repository.WriteOutcome, error) {
	account, ok := s.findByID(ctx, id)
	if !ok {
		return nil, "", domain.NotFoundError{Resource: "user", ID: id}
	}

	if input.Name != nil {
		if len(strings.TrimSpace(*input.Name)) < 2 {
			return nil, "", domain.ValidationError{Field: "name", Msg: "too short"}
		}
		account.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if !strings.Contains(email, "@") {
			return nil, "", domain.ValidationError{Field: "email", Msg: "must be an email address"}
		}
		if err := s.checkConflicts(ctx, "", email, account.ID); err != nil {
			return nil, "", err
		}
		account.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, "", domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password")
		}
		account.PasswordHash = string(hash)
	}
	if input.Course != nil {
		account.Course = *input.Course
	}
	if input.AdmissionYear != nil {
		account.AdmissionYear = *input.AdmissionYear
	}
	if input.Department != nil {
		account.Department = *input.Department
	}
	account.UpdatedAt = domain.NowISO()

	outcome, err := s.accounts[account.Role].Save(ctx, *account)
	if err != nil {
		return nil, "", err
	}

	s.activities.Log(ctx, "user_updated", fmt.Sprintf("account %s updated", account.Name), actor, nil)
	s.hub.TriggerUpdate(broadcast.TypeUserUpdated, *account, actor)
	return account, outcome, nil
}

// ResetPassword rewrites the stored credential for the account with the
// given email. The write goes through the dual store so the mirror copy is
// rewritten along with the remote one.
func (s *UserService) ResetPassword(ctx context.Context, email, newPassword string) (repository.WriteOutcome, error) {
	account, ok := s.FindByIdentifier(ctx, email)
	if !ok {
		return "", domain.NotFoundError{Resource: "user"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password")
	}
	account.PasswordHash = string(hash)
	account.UpdatedAt = domain.NowISO()

	return s.accounts[account.Role].Save(ctx, *account)
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string, actor string) error {
	account, ok := s.findByID(ctx, id)
	if !ok {
		return domain.NotFoundError{Resource: "user", ID: id}
	}

	s.accounts[account.Role].Delete(ctx, id)
	s.activities.Log(ctx, "user_deleted", fmt.Sprintf("account %s removed", account.Name), actor, nil)
	s.hub.TriggerUpdate(broadcast.TypeUserDeleted, *account, actor)
	return nil
}

func (s *UserService) findByID(ctx context.Context, id string) (*domain.UserAccount, bool) {
	for _, role := range domain.UserRoles() {
		if account, ok := s.accounts[role].Get(ctx, id); ok {
			return &account, true
		}
	}
	return nil, false
}

// checkConflicts scans every role collection for an identifier or email
// collision. excludeID skips the account being updated.
func (s *UserService) checkConflicts(ctx context.Context, identifier, email, excludeID string) error {
	for _, role := range domain.UserRoles() {
		for _, existing := range s.accounts[role].All(ctx) {
			if existing.ID == excludeID {
				continue
			}
			if identifier != "" && (strings.EqualFold(existing.Identifier, identifier) || strings.EqualFold(existing.Email, identifier)) {
				return domain.ConflictError{
					Resource: "user",
					Msg:      fmt.Sprintf("identifier already registered to a %s account", existing.Role),
				}
			}
			if email != "" && (strings.EqualFold(existing.Email, email) || strings.EqualFold(existing.Identifier, email)) {
				return domain.ConflictError{
					Resource: "user",
					Msg:      fmt.Sprintf("email already registered to a %s account", existing.Role),
				}
			}
		}
	}
	return nil
}
