package services

import (
	"context"
	"errors"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"
	"chitfund-backoffice/internal/pkg/crypto"
	"chitfund-backoffice/internal/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrPasswordTooShort rejects invites whose initial password the identity
// provider would refuse at claim time
var ErrPasswordTooShort = errors.New("initial password must be at least 6 characters")

// UserService manages role records: invites, profile updates and
// activation state.
type UserService struct {
	userRepo repositories.UserRepository
	codec    *crypto.Codec
	log      *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, codec *crypto.Codec, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		codec:    codec,
		log:      log,
	}
}

// InviteInput represents an administrator provisioning a new user
type InviteInput struct {
	Email                string   `json:"email" validate:"required,email"`
	DisplayName          string   `json:"displayName" validate:"required"`
	Role                 string   `json:"role" validate:"required,oneof=ADMIN AGENT"`
	Phone                string   `json:"phone"`
	Address              string   `json:"address"`
	InitialPassword      string   `json:"initialPassword" validate:"required,min=6"`
	CommissionPercentage *float64 `json:"commissionPercentage"`
}

// UpdateUserInput represents a partial profile update
type UpdateUserInput struct {
	DisplayName          *string  `json:"displayName"`
	Phone                *string  `json:"phone"`
	Address              *string  `json:"address"`
	ThemePreference      *string  `json:"themePreference"`
	CommissionPercentage *float64 `json:"commissionPercentage"`
	Status               *string  `json:"status"`
}

// Invite provisions a role record ahead of the person's first login. The
// record is keyed by a placeholder id and carries the initial password the
// claim flow will verify.
func (s *UserService) Invite(ctx context.Context, input *InviteInput) (*models.UserResponse, error) {
	email := normalizeEmail(input.Email)
	if !password.ValidatePassword(input.InitialPassword) {
		return nil, ErrPasswordTooShort
	}

	// 1. One role record per address
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	// 2. Create the invite. The uid is provisional; claiming re-keys the
	// record to the real identity id.
	initial := input.InitialPassword
	user := &models.User{
		UID:                  models.NewID(),
		Email:                email,
		Role:                 input.Role,
		DisplayName:          input.DisplayName,
		Phone:                input.Phone,
		Address:              input.Address,
		Status:               models.StatusActive,
		InitialPassword:      &initial,
		CommissionPercentage: input.CommissionPercentage,
		CreatedAt:            models.NowMillis(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("✅ user invited", zap.String("email", email), zap.String("role", input.Role))
	return user.ToResponse(), nil
}

// GetByUID returns one role record
func (s *UserService) GetByUID(ctx context.Context, uid string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// List returns a page of role records
func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, total, nil
}

// GetAgents returns every AGENT role record
func (s *UserService) GetAgents(ctx context.Context) ([]*models.UserResponse, error) {
	agents, err := s.userRepo.GetAgents(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, 0, len(agents))
	for _, a := range agents {
		responses = append(responses, a.ToResponse())
	}
	return responses, nil
}

// Update applies a partial profile update
func (s *UserService) Update(ctx context.Context, uid string, input *UpdateUserInput) (*models.UserResponse, error) {
	fields := map[string]interface{}{}
	if input.DisplayName != nil {
		fields["display_name"] = *input.DisplayName
	}
	if input.Phone != nil {
		fields["phone"] = *input.Phone
	}
	if input.Address != nil {
		fields["address"] = *input.Address
	}
	if input.ThemePreference != nil {
		fields["theme_preference"] = *input.ThemePreference
	}
	if input.CommissionPercentage != nil {
		fields["commission_percentage"] = *input.CommissionPercentage
	}
	if input.Status != nil {
		if *input.Status != models.StatusActive && *input.Status != models.StatusInactive {
			return nil, errors.New("invalid status")
		}
		fields["status"] = *input.Status
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, uid, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
	}

	return s.GetByUID(ctx, uid)
}

// UpdatePhoto encrypts and stores a profile photo
func (s *UserService) UpdatePhoto(ctx context.Context, uid, photo string) error {
	sealed, err := s.codec.Encrypt(photo)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, uid, map[string]interface{}{"photo": sealed}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// GetPhoto returns the decrypted profile photo
func (s *UserService) GetPhoto(ctx context.Context, uid string) (string, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return s.codec.Decrypt(user.Photo)
}

// Deactivate marks a role record INACTIVE; the session checks deny the
// account on its next request or sign-in
func (s *UserService) Deactivate(ctx context.Context, uid string) error {
	if err := s.userRepo.UpdateFields(ctx, uid, map[string]interface{}{"status": models.StatusInactive}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.log.Info("user deactivated", zap.String("uid", uid))
	return nil
}

// Delete removes a role record. The matching identity, if any, becomes an
// orphan and is swept by the nightly reconcile.
func (s *UserService) Delete(ctx context.Context, uid string) error {
	if err := s.userRepo.Delete(ctx, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.log.Info("🗑️ user deleted", zap.String("uid", uid))
	return nil
}
