package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"
	"chitfund-backoffice/internal/config"
	"chitfund-backoffice/internal/identity"
	"chitfund-backoffice/internal/pkg/jwt"
	"chitfund-backoffice/internal/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("email already in use")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrClaimVerification  = errors.New("invite verification failed")
)

// AuthService handles authentication business logic: standard sign-in,
// root-admin bootstrap, the invite claim flow and session lifecycle.
type AuthService struct {
	provider         identity.Provider
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
	log              *zap.Logger

	// claimMu guards the set of emails with an invite claim in flight. The
	// guard is set before the speculative identity creation so the sign-in
	// event that creation emits does not tear the half-claimed session down.
	claimMu  sync.Mutex
	claiming map[string]struct{}

	// bypassMu guards in-memory root-admin sessions issued when the
	// provider has no password accounts configured. These sessions never
	// touch the store.
	bypassMu sync.Mutex
	bypass   map[string]*models.User
}

// NewAuthService creates a new auth service and subscribes it to the
// identity provider's event stream.
func NewAuthService(
	provider identity.Provider,
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	s := &AuthService{
		provider:         provider,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
		log:              log,
		claiming:         make(map[string]struct{}),
		bypass:           make(map[string]*models.User),
	}

	provider.Subscribe(s.onIdentityEvent)
	return s
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token,omitempty"`
}

// Login authenticates by email and password. A plain sign-in is attempted
// first; on failure the flow branches into the root-admin bypass, the
// root-admin bootstrap or the invite claim depending on the failure kind
// and the address.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	email := normalizeEmail(input.Email)
	if input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	// 1. Attempt standard sign-in
	uid, err := s.provider.SignIn(ctx, email, input.Password)
	if err == nil {
		return s.establishSession(ctx, uid, email)
	}

	kind := identity.KindOf(err)
	s.log.Info("standard sign-in failed", zap.String("email", email), zap.Stringer("kind", kind))

	// 2. Root-admin branches
	if email == s.cfg.Auth.RootAdminEmail {
		// Provider has no password accounts at all: issue an in-memory
		// admin session. Nothing is written to the store.
		if kind == identity.KindProviderMisconfigured {
			return s.bypassSession(email)
		}

		// No identity yet (or a stale credential): bootstrap the root admin
		if kind == identity.KindIdentityNotFound || kind == identity.KindInvalidCredential {
			return s.bootstrapRootAdmin(ctx, email, input.Password)
		}
	}

	// 3. Invite claim: any credential-shaped failure may be a first login
	// against a provisioned invite
	if kind == identity.KindIdentityNotFound || kind == identity.KindInvalidCredential {
		return s.claimInvite(ctx, email, input.Password)
	}

	return nil, err
}

// bypassSession issues an in-memory ADMIN session for the root admin. The
// provider cannot verify anything in this state, so there is no credential
// check; the session exists only in this process.
func (s *AuthService) bypassSession(email string) (*AuthResponse, error) {
	s.log.Warn("⚠️ identity provider misconfigured, issuing local admin session", zap.String("email", email))

	user := &models.User{
		UID:         "local-admin-" + uuid.New().String(),
		Email:       email,
		DisplayName: "Admin User",
		Role:        models.RoleAdmin,
		Status:      models.StatusActive,
		CreatedAt:   models.NowMillis(),
	}

	s.bypassMu.Lock()
	s.bypass[user.UID] = user
	s.bypassMu.Unlock()

	accessToken, err := jwt.GenerateAccessToken(
		user.UID, user.Email, user.Role,
		s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	// Access token only. No refresh token is issued because persisting one
	// would write to the store, and a bypass session must not.
	return &AuthResponse{
		User:        user.ToResponse(),
		AccessToken: accessToken,
	}, nil
}

// bootstrapRootAdmin creates the root admin identity and role record on
// first login. An existing identity with a different password surfaces as
// AlreadyInUse, which means the password was simply wrong.
func (s *AuthService) bootstrapRootAdmin(ctx context.Context, email, pass string) (*AuthResponse, error) {
	s.log.Info("bootstrapping root admin", zap.String("email", email))

	uid, err := s.provider.CreateIdentity(ctx, email, pass)
	if err != nil {
		if identity.KindOf(err) == identity.KindAlreadyInUse {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// establishSession creates the ADMIN role record when missing, so the
	// bootstrap is idempotent against the sign-in event observer racing us.
	return s.establishSession(ctx, uid, email)
}

// claimInvite is the first-login flow for provisioned users. The identity
// is created speculatively, then verified against the invite's initial
// password; any failure rolls the identity back.
func (s *AuthService) claimInvite(ctx context.Context, email, pass string) (*AuthResponse, error) {
	// 1. Guard the email before creating the identity. Creation emits a
	// signed-in event and the observer must not tear the session down just
	// because the role record has not been migrated yet.
	s.setClaiming(email)
	defer s.clearClaiming(email)

	// 2. Speculatively create the identity
	uid, err := s.provider.CreateIdentity(ctx, email, pass)
	if err != nil {
		if identity.KindOf(err) == identity.KindAlreadyInUse {
			// The identity exists, so the original sign-in failed on a wrong
			// password, not a missing invite.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 3. Look up the invite by address
	invite, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.rollbackIdentity(ctx, uid, email, "no invite for address")
			return nil, ErrInvalidCredentials
		}
		s.rollbackIdentity(ctx, uid, email, "invite lookup failed")
		return nil, ErrClaimVerification
	}

	// 4. Verify the provided password against the invite's initial password
	if !matchesInitialPassword(invite, pass) {
		s.rollbackIdentity(ctx, uid, email, "initial password mismatch")
		return nil, ErrInvalidCredentials
	}

	// 5. Migrate the invite onto the real identity id, dropping the initial
	// password. The email column is unique, so the provisional record has
	// to go before the migrated one is inserted; a failed insert puts the
	// invite back so the claim can be retried.
	claimed := invite.CloneForClaim(uid, email)
	if invite.UID == uid {
		if err := s.userRepo.Update(ctx, claimed); err != nil {
			s.rollbackIdentity(ctx, uid, email, "claim migration failed")
			return nil, err
		}
	} else {
		if err := s.userRepo.Delete(ctx, invite.UID); err != nil {
			s.rollbackIdentity(ctx, uid, email, "invite removal failed")
			return nil, ErrClaimVerification
		}
		if err := s.userRepo.Create(ctx, claimed); err != nil {
			if restoreErr := s.userRepo.Create(ctx, invite); restoreErr != nil {
				s.log.Error("🧹 failed to restore invite record after claim migration",
					zap.String("email", email), zap.Error(restoreErr))
			}
			s.rollbackIdentity(ctx, uid, email, "claim migration failed")
			return nil, err
		}
	}

	s.log.Info("✅ invite claimed", zap.String("email", email), zap.String("role", claimed.Role))

	// 6. Issue the session directly; the record now exists under the new uid
	return s.issueTokens(ctx, claimed)
}

// matchesInitialPassword compares a login password with an invite's initial
// password: exact match first, then a case-insensitive fallback kept for
// compatibility with invites typed or relayed with wrong casing.
func matchesInitialPassword(invite *models.User, pass string) bool {
	if !invite.IsUnclaimedInvite() {
		return false
	}
	stored := strings.TrimSpace(*invite.InitialPassword)
	provided := strings.TrimSpace(pass)
	return stored == provided || strings.EqualFold(stored, provided)
}

func (s *AuthService) rollbackIdentity(ctx context.Context, uid, email, reason string) {
	s.log.Warn("rolling back speculative identity",
		zap.String("email", email), zap.String("reason", reason))
	if err := s.provider.DeleteIdentity(ctx, uid); err != nil {
		s.log.Error("❌ identity rollback failed", zap.String("uid", uid), zap.Error(err))
	}
}

// establishSession resolves an authenticated identity to a role record and
// issues tokens. A missing record is only tolerated for the root admin,
// whose record is (re)created on the fly.
func (s *AuthService) establishSession(ctx context.Context, uid, email string) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if email != s.cfg.Auth.RootAdminEmail {
			// Identity without a role record gets no session
			_ = s.provider.SignOut(ctx, uid)
			return nil, ErrInvalidCredentials
		}

		user = &models.User{
			UID:         uid,
			Email:       email,
			DisplayName: "Admin User",
			Role:        models.RoleAdmin,
			Status:      models.StatusActive,
			CreatedAt:   models.NowMillis(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// Lost a race against the event observer doing the same
			// bootstrap; the record is there either way.
			existing, readErr := s.userRepo.GetByUID(ctx, uid)
			if readErr != nil {
				return nil, err
			}
			user = existing
		}
		s.log.Info("✅ root admin record bootstrapped", zap.String("uid", uid))
	}

	if user.Status != models.StatusActive {
		_ = s.provider.SignOut(ctx, uid)
		return nil, ErrUserInactive
	}

	return s.issueTokens(ctx, user)
}

// onIdentityEvent enforces session rules whenever the provider reports a
// sign-in, mirroring the per-request checks for sessions established out of
// band.
func (s *AuthService) onIdentityEvent(ev identity.Event) {
	if ev.Type != identity.EventSignedIn {
		return
	}
	ctx := context.Background()

	user, err := s.userRepo.GetByUID(ctx, ev.UID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("session check failed", zap.String("uid", ev.UID), zap.Error(err))
			return
		}

		if normalizeEmail(ev.Email) == s.cfg.Auth.RootAdminEmail {
			admin := &models.User{
				UID:         ev.UID,
				Email:       normalizeEmail(ev.Email),
				DisplayName: "Admin User",
				Role:        models.RoleAdmin,
				Status:      models.StatusActive,
				CreatedAt:   models.NowMillis(),
			}
			if err := s.userRepo.Create(ctx, admin); err == nil {
				s.log.Info("✅ root admin record bootstrapped", zap.String("uid", ev.UID))
			}
			return
		}

		if s.isClaiming(ev.Email) {
			// Mid-claim: the record migration has not happened yet, do not
			// tear down the session the claim flow is building.
			s.log.Debug("sign-in during invite claim, skipping enforcement", zap.String("email", ev.Email))
			return
		}

		s.log.Warn("identity without role record signed in, forcing sign-out", zap.String("uid", ev.UID))
		_ = s.provider.SignOut(ctx, ev.UID)
		return
	}

	if user.Status != models.StatusActive {
		s.log.Warn("inactive user signed in, forcing sign-out", zap.String("uid", ev.UID))
		_ = s.provider.SignOut(ctx, ev.UID)
	}
}

// RefreshToken rotates a refresh token and issues a fresh pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// 2. Hash the token to find in DB
	tokenHash := password.HashToken(refreshToken)

	// 3. Find token in DB
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// 4. Check if token is revoked
	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}

	// 5. Check if token is expired
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	// 6. Get the role record
	user, err := s.userRepo.GetByUID(ctx, claims.UID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// 7. Check if user is active
	if user.Status != models.StatusActive {
		return nil, ErrUserInactive
	}

	// 8. Revoke old refresh token (token rotation)
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	// 9. Issue new pair
	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("✅ token refreshed", zap.String("uid", user.UID))
	return resp, nil
}

// Logout revokes the refresh token. Bypass sessions carry no refresh token
// and are dropped from the in-memory registry instead.
func (s *AuthService) Logout(ctx context.Context, uid, refreshToken string) error {
	if s.dropBypass(uid) {
		s.log.Info("✅ local admin session ended", zap.String("uid", uid))
		return nil
	}

	if refreshToken != "" {
		tokenHash := password.HashToken(refreshToken)
		if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
			return err
		}
	}

	_ = s.provider.SignOut(ctx, uid)
	s.log.Info("✅ user logged out", zap.String("uid", uid))
	return nil
}

// LogoutAll revokes every refresh token for a user
func (s *AuthService) LogoutAll(ctx context.Context, uid string) error {
	if err := s.refreshTokenRepo.RevokeAllByUser(ctx, uid); err != nil {
		return err
	}

	s.log.Info("✅ all sessions revoked", zap.String("uid", uid))
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// ResolveSession maps validated claims to the current role record,
// re-checking status on every request. Bypass sessions resolve from the
// in-memory registry and never touch the store.
func (s *AuthService) ResolveSession(ctx context.Context, claims *jwt.Claims) (*models.User, error) {
	s.bypassMu.Lock()
	if user, ok := s.bypass[claims.UID]; ok {
		s.bypassMu.Unlock()
		return user, nil
	}
	s.bypassMu.Unlock()

	user, err := s.userRepo.GetByUID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != models.StatusActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// issueTokens generates a token pair and stores the hashed refresh token
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.UID, user.Email, user.Role,
		s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()
	refreshToken, err := jwt.GenerateRefreshToken(
		user.UID, tokenID,
		s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	stored := &models.RefreshToken{
		UserUID:   user.UID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) setClaiming(email string) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	s.claiming[normalizeEmail(email)] = struct{}{}
}

func (s *AuthService) clearClaiming(email string) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	delete(s.claiming, normalizeEmail(email))
}

func (s *AuthService) isClaiming(email string) bool {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()
	_, ok := s.claiming[normalizeEmail(email)]
	return ok
}

func (s *AuthService) dropBypass(uid string) bool {
	s.bypassMu.Lock()
	defer s.bypassMu.Unlock()
	if _, ok := s.bypass[uid]; !ok {
		return false
	}
	delete(s.bypass, uid)
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
