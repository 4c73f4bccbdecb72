package identity

import (
	"context"
	"errors"
	"sync"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/pkg/password"

	"gorm.io/gorm"
)

// LocalProvider is a self-hosted identity provider backed by the
// identities table and bcrypt hashes. It stands in for a managed
// email/password backend; the bootstrap flow only ever talks to the
// Provider interface.
type LocalProvider struct {
	db              *gorm.DB
	passwordEnabled bool

	mu        sync.Mutex
	observers []Observer
}

// NewLocalProvider creates a local identity provider. passwordEnabled
// models whether password accounts are configured at all; when false every
// sign-in fails with KindProviderMisconfigured.
func NewLocalProvider(db *gorm.DB, passwordEnabled bool) *LocalProvider {
	return &LocalProvider{
		db:              db,
		passwordEnabled: passwordEnabled,
	}
}

// Subscribe registers an identity-change observer
func (p *LocalProvider) Subscribe(obs Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, obs)
}

func (p *LocalProvider) notify(ev Event) {
	p.mu.Lock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.Unlock()

	for _, obs := range observers {
		obs(ev)
	}
}

// SignIn authenticates an identity by email and password
func (p *LocalProvider) SignIn(ctx context.Context, email, pass string) (string, error) {
	if !p.passwordEnabled {
		return "", NewError(KindProviderMisconfigured, "password accounts are not configured")
	}

	var ident models.Identity
	err := p.db.WithContext(ctx).Where("email = ?", email).First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", NewError(KindIdentityNotFound, email)
		}
		return "", NewError(KindInternal, err.Error())
	}

	if !password.Verify(pass, ident.PasswordHash) {
		return "", NewError(KindInvalidCredential, email)
	}

	p.notify(Event{Type: EventSignedIn, UID: ident.UID, Email: ident.Email})
	return ident.UID, nil
}

// CreateIdentity registers a new identity and signs it in
func (p *LocalProvider) CreateIdentity(ctx context.Context, email, pass string) (string, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Identity{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", NewError(KindInternal, err.Error())
	}
	if count > 0 {
		return "", NewError(KindAlreadyInUse, email)
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return "", NewError(KindInternal, err.Error())
	}

	ident := &models.Identity{
		UID:          models.NewID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    models.NowMillis(),
	}
	if err := p.db.WithContext(ctx).Create(ident).Error; err != nil {
		return "", NewError(KindInternal, err.Error())
	}

	// A freshly created identity is signed in, like managed providers do
	p.notify(Event{Type: EventSignedIn, UID: ident.UID, Email: ident.Email})
	return ident.UID, nil
}

// DeleteIdentity removes an identity record
func (p *LocalProvider) DeleteIdentity(ctx context.Context, uid string) error {
	var ident models.Identity
	err := p.db.WithContext(ctx).Where("uid = ?", uid).First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewError(KindIdentityNotFound, uid)
		}
		return NewError(KindInternal, err.Error())
	}

	if err := p.db.WithContext(ctx).Where("uid = ?", uid).Delete(&models.Identity{}).Error; err != nil {
		return NewError(KindInternal, err.Error())
	}

	p.notify(Event{Type: EventDeleted, UID: uid, Email: ident.Email})
	return nil
}

// SignOut ends an identity's session. The local provider keeps no server
// session state; the event lets the session resolver react.
func (p *LocalProvider) SignOut(ctx context.Context, uid string) error {
	p.notify(Event{Type: EventSignedOut, UID: uid})
	return nil
}

// List returns every identity record (reconcile sweep)
func (p *LocalProvider) List(ctx context.Context) ([]*models.Identity, error) {
	var identities []*models.Identity
	err := p.db.WithContext(ctx).Find(&identities).Error
	return identities, err
}
