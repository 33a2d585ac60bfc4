package service

import (
	"context"
	"errors"
	"sync"

	userserrors "staybook/internal/users/errors"
	"staybook/internal/users/repository"
	"staybook/internal/users/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/guard"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"staybook/pkg/token"

	"golang.org/x/crypto/bcrypt"
)

// PropertyCounter reports how many properties a host owns. Satisfied by the
// properties repository; kept as a local interface so the users service does
// not depend on the properties package.
type PropertyCounter interface {
	CountByHost(ctx context.Context, hostID string) (int64, error)
}

type UserService interface {
	Register(ctx context.Context, reg *model.UserRegistration) (*model.User, error)
	Login(ctx context.Context, creds *model.Credentials) (*model.Session, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListAll(ctx context.Context, principal guard.Principal, limit int, offset int64) ([]*model.AdminUserView, int64, error)
}

type userService struct {
	repo       repository.UserRepository
	properties PropertyCounter
	validator  *validator.UserValidator
	tokens     *token.Service
	cfg        *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	properties PropertyCounter,
	validator *validator.UserValidator,
	tokens *token.Service,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:       repo,
		properties: properties,
		validator:  validator,
		tokens:     tokens,
		cfg:        cfg,
	}
}

func (s *userService) Register(ctx context.Context, reg *model.UserRegistration) (*model.User, error) {
	s.sanitizeRegistration(reg)
	if err := s.validator.ValidateRegistration(reg); err != nil {
		s.cfg.Log.Warn("User registration validation failed", "error", err)
		return nil, apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}

	if reg.Email == s.cfg.AdminEmail {
		return nil, apperrors.InvalidInput("User with this email already exists")
	}

	_, err := s.repo.FindByEmail(ctx, reg.Email)
	if err == nil {
		return nil, apperrors.InvalidInput("User with this email already exists")
	}
	if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check existing users", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	role := reg.Role
	if role == "" {
		role = model.RoleTraveler
	}

	user := &model.User{
		Name:     reg.Name,
		Email:    reg.Email,
		Password: string(hash),
		Phone:    reg.Phone,
		Role:     role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// The unique email index closes the check-then-insert race.
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.InvalidInput("User with this email already exists")
		}
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered successfully",
		"id", user.ID,
		"role", user.Role,
	)
	return user, nil
}

func (s *userService) Login(ctx context.Context, creds *model.Credentials) (*model.Session, error) {
	creds.Email = sanitizer.SanitizeEmail(creds.Email)
	if err := s.validator.ValidateCredentials(creds); err != nil {
		s.cfg.Log.Warn("Login validation failed", "error", err)
		return nil, apperrors.Validation("Login validation failed", map[string]any{"error": err.Error()})
	}

	if s.isAdminLogin(creds) {
		return s.adminSession()
	}

	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	tokenStr, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token", err)
	}

	s.cfg.Log.Info("User logged in", "id", user.ID, "role", user.Role)
	return &model.Session{Token: tokenStr, User: *user}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFound("User")
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

// ListAll returns every registered account. Hosts are annotated with the
// number of properties they own.
func (s *userService) ListAll(ctx context.Context, principal guard.Principal, limit int, offset int64) ([]*model.AdminUserView, int64, error) {
	if !guard.Allows(principal, guard.ActionUsersList, "") {
		return nil, 0, apperrors.Unauthorized("Unauthorized")
	}

	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Internal("Failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		users, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve users", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	views := make([]*model.AdminUserView, 0, len(users))
	for _, user := range users {
		view := &model.AdminUserView{User: *user}
		if user.Role == model.RoleHost {
			owned, err := s.properties.CountByHost(ctx, user.ID)
			if err != nil {
				return nil, 0, apperrors.Internal("Failed to count host properties", err)
			}
			view.PropertyCount = &owned
		}
		views = append(views, view)
	}

	return views, count, nil
}

func (s *userService) sanitizeRegistration(reg *model.UserRegistration) {
	reg.Name = sanitizer.SanitizeText(reg.Name)
	reg.Email = sanitizer.SanitizeEmail(reg.Email)
	reg.Phone = sanitizer.SanitizePhone(reg.Phone)
}

func (s *userService) isAdminLogin(creds *model.Credentials) bool {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		return false
	}
	return creds.Email == s.cfg.AdminEmail && creds.Password == s.cfg.AdminPassword
}

func (s *userService) adminSession() (*model.Session, error) {
	tokenStr, err := s.tokens.Generate(model.AdminUserID, model.RoleAdmin)
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token", err)
	}

	s.cfg.Log.Info("Administrator logged in")
	return &model.Session{
		Token: tokenStr,
		User: model.User{
			ID:    model.AdminUserID,
			Name:  "Administrator",
			Email: s.cfg.AdminEmail,
			Role:  model.RoleAdmin,
		},
	}, nil
}
