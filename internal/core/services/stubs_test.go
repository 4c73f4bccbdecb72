package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/identity"

	"gorm.io/gorm"
)

// In-memory repository stubs. They mirror the GORM implementations'
// contracts: gorm.ErrRecordNotFound for absent rows, partial updates only
// touch the named columns, and aggregate updates never upsert.

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*models.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.UID == "" {
		user.UID = models.NewID()
	}
	if _, ok := r.users[user.UID]; ok {
		return gorm.ErrDuplicatedKey
	}
	// Email carries a unique index on the real table
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	clone := *user
	r.users[user.UID] = &clone
	return nil
}

func (r *stubUserRepo) GetByUID(_ context.Context, uid string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) GetAgents(_ context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var agents []*models.User
	for _, user := range r.users {
		if user.Role == models.RoleAgent {
			clone := *user
			agents = append(agents, &clone)
		}
	}
	return agents, nil
}

func (r *stubUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*models.User
	for _, user := range r.users {
		clone := *user
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UID < all[j].UID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.UID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *user
	r.users[user.UID] = &clone
	return nil
}

func (r *stubUserRepo) UpdateFields(_ context.Context, uid string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, val := range fields {
		switch col {
		case "display_name":
			user.DisplayName = val.(string)
		case "phone":
			user.Phone = val.(string)
		case "address":
			user.Address = val.(string)
		case "theme_preference":
			user.ThemePreference = val.(string)
		case "commission_percentage":
			v := val.(float64)
			user.CommissionPercentage = &v
		case "status":
			user.Status = val.(string)
		case "photo":
			user.Photo = val.(string)
		}
	}
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[uid]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, uid)
	return nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type stubRefreshTokenRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
}

func newStubRefreshTokenRepo() *stubRefreshTokenRepo {
	return &stubRefreshTokenRepo{tokens: make(map[uint]*models.RefreshToken)}
}

func (r *stubRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	clone := *token
	r.tokens[token.ID] = &clone
	return nil
}

func (r *stubRefreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return nil
}

func (r *stubRefreshTokenRepo) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			now := time.Now()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *stubRefreshTokenRepo) RevokeAllByUser(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.UserUID == uid {
			now := time.Now()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *stubRefreshTokenRepo) DeleteExpired(_ context.Context) error { return nil }

func (r *stubRefreshTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type stubCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*models.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[string]*models.Customer)}
}

func (r *stubCustomerRepo) Create(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer.ID == "" {
		customer.ID = models.NewID()
	}
	clone := *customer
	r.customers[customer.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) GetByID(_ context.Context, id string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *customer
	return &clone, nil
}

func (r *stubCustomerRepo) GetByAgentID(_ context.Context, agentID string) ([]*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Customer
	for _, customer := range r.customers {
		if customer.AgentID == agentID {
			clone := *customer
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubCustomerRepo) List(_ context.Context, offset, limit int) ([]*models.Customer, int64, error) {
	all, err := r.ListAll(context.Background())
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *stubCustomerRepo) ListAll(_ context.Context) ([]*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*models.Customer
	for _, customer := range r.customers {
		clone := *customer
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[customer.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *customer
	r.customers[customer.ID] = &clone
	return nil
}

func (r *stubCustomerRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, val := range fields {
		switch col {
		case "name":
			customer.Name = val.(string)
		case "phone":
			customer.Phone = val.(string)
		case "email":
			customer.Email = val.(string)
		case "address":
			customer.Address = val.(string)
		case "agent_id":
			customer.AgentID = val.(string)
		case "kyc_status":
			customer.KYCStatus = val.(string)
		case "status":
			customer.Status = val.(string)
		case "last_paid_date":
			customer.LastPaidDate = val.(int64)
		case "aadhaar_image":
			customer.AadhaarImage = val.(string)
		case "pan_image":
			customer.PanImage = val.(string)
		case "photo":
			customer.Photo = val.(string)
		}
	}
	return nil
}

// UpdateAggregates writes only the five derived columns, and only onto an
// existing row
func (r *stubCustomerRepo) UpdateAggregates(_ context.Context, id string, agg *models.Aggregates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	customer.TotalLoanAmount = agg.TotalLoanAmount
	customer.CurrentDueAmount = agg.CurrentDueAmount
	customer.TotalDisbursedAmount = agg.TotalDisbursedAmount
	customer.TotalPaidAmount = agg.TotalPaidAmount
	customer.ActiveLoansCount = agg.ActiveLoansCount
	return nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.customers, id)
	return nil
}

type stubLoanRepo struct {
	mu    sync.Mutex
	loans map[string]*models.Loan
}

func newStubLoanRepo() *stubLoanRepo {
	return &stubLoanRepo{loans: make(map[string]*models.Loan)}
}

func (r *stubLoanRepo) Create(_ context.Context, loan *models.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loan.ID == "" {
		loan.ID = models.NewID()
	}
	clone := *loan
	r.loans[loan.ID] = &clone
	return nil
}

func (r *stubLoanRepo) GetByID(_ context.Context, id string) (*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *loan
	return &clone, nil
}

func (r *stubLoanRepo) GetByCustomerID(_ context.Context, customerID string) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Loan
	for _, loan := range r.loans {
		if loan.CustomerID == customerID {
			clone := *loan
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubLoanRepo) GetByAgentID(_ context.Context, agentID string) ([]*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Loan
	for _, loan := range r.loans {
		if loan.AgentID == agentID {
			clone := *loan
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubLoanRepo) List(_ context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*models.Loan
	for _, loan := range r.loans {
		clone := *loan
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *stubLoanRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, val := range fields {
		switch col {
		case "status":
			loan.Status = val.(string)
		case "paid_amount":
			loan.PaidAmount = val.(float64)
		case "outstanding_amount":
			loan.OutstandingAmount = val.(float64)
		case "end_date":
			v := val.(int64)
			loan.EndDate = &v
		}
	}
	return nil
}

func (r *stubLoanRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.loans, id)
	return nil
}

type stubPaymentRepo struct {
	mu       sync.Mutex
	payments []*models.Payment
}

func newStubPaymentRepo() *stubPaymentRepo { return &stubPaymentRepo{} }

func (r *stubPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment.ID == "" {
		payment.ID = models.NewID()
	}
	clone := *payment
	r.payments = append(r.payments, &clone)
	return nil
}

func (r *stubPaymentRepo) GetByCustomerID(_ context.Context, customerID string) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.CustomerID == customerID {
			clone := *payment
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) GetByCollector(_ context.Context, agentID string) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.CollectedBy == agentID {
			clone := *payment
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) GetAll(_ context.Context) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Payment, 0, len(r.payments))
	for _, payment := range r.payments {
		clone := *payment
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubPaymentRepo) GetRecent(_ context.Context, limit int) ([]*models.Payment, error) {
	all, _ := r.GetAll(context.Background())
	sort.Slice(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *stubPaymentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, payment := range r.payments {
		if payment.ID == id {
			r.payments = append(r.payments[:i], r.payments[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubCollectionRepo struct {
	mu      sync.Mutex
	records map[string]*models.CollectionRecord
}

func newStubCollectionRepo() *stubCollectionRepo {
	return &stubCollectionRepo{records: make(map[string]*models.CollectionRecord)}
}

func (r *stubCollectionRepo) Create(_ context.Context, record *models.CollectionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == "" {
		record.ID = models.NewID()
	}
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *stubCollectionRepo) GetAll(_ context.Context) ([]*models.CollectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CollectionRecord
	for _, record := range r.records {
		clone := *record
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubCollectionRepo) GetByAgentID(_ context.Context, agentID string) ([]*models.CollectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CollectionRecord
	for _, record := range r.records {
		if record.AgentID == agentID {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubCollectionRepo) GetByCustomerID(_ context.Context, customerID string) ([]*models.CollectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CollectionRecord
	for _, record := range r.records {
		if record.CustomerID == customerID {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubCollectionRepo) Find(_ context.Context, agentID, customerID, loanID string) (*models.CollectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.AgentID == agentID && record.CustomerID == customerID && record.LoanID == loanID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCollectionRepo) UpdateOutstanding(_ context.Context, id string, outstanding float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	record.Paid = record.TotalDue - outstanding
	record.Outstanding = outstanding
	return nil
}

type stubActivityRepo struct {
	mu         sync.Mutex
	activities []*models.Activity
}

func newStubActivityRepo() *stubActivityRepo { return &stubActivityRepo{} }

func (r *stubActivityRepo) Create(_ context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if activity.ID == "" {
		activity.ID = models.NewID()
	}
	clone := *activity
	r.activities = append(r.activities, &clone)
	return nil
}

func (r *stubActivityRepo) GetByCustomerID(_ context.Context, customerID string) ([]*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Activity
	for _, activity := range r.activities {
		if activity.CustomerID == customerID {
			clone := *activity
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubActivityRepo) GetByAgentID(_ context.Context, agentID string) ([]*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Activity
	for _, activity := range r.activities {
		if activity.AgentID == agentID {
			clone := *activity
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubActivityRepo) GetAll(_ context.Context) ([]*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Activity, 0, len(r.activities))
	for _, activity := range r.activities {
		clone := *activity
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (r *stubActivityRepo) ofType(activityType string) []*models.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Activity
	for _, activity := range r.activities {
		if activity.Type == activityType {
			out = append(out, activity)
		}
	}
	return out
}

// stubProvider is an in-memory identity provider with the same event
// semantics as the local one: creation also emits a signed-in event.
type stubProvider struct {
	mu            sync.Mutex
	misconfigured bool
	identities    map[string]string // email -> password
	uids          map[string]string // email -> uid
	observers     []identity.Observer
	signedOut     []string
	deleted       []string
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		identities: make(map[string]string),
		uids:       make(map[string]string),
	}
}

func (p *stubProvider) Subscribe(obs identity.Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, obs)
}

func (p *stubProvider) notify(ev identity.Event) {
	p.mu.Lock()
	observers := append([]identity.Observer(nil), p.observers...)
	p.mu.Unlock()
	for _, obs := range observers {
		obs(ev)
	}
}

func (p *stubProvider) addIdentity(email, pass string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid := models.NewID()
	p.identities[email] = pass
	p.uids[email] = uid
	return uid
}

func (p *stubProvider) SignIn(_ context.Context, email, pass string) (string, error) {
	p.mu.Lock()
	if p.misconfigured {
		p.mu.Unlock()
		return "", identity.NewError(identity.KindProviderMisconfigured, "disabled")
	}
	stored, ok := p.identities[email]
	if !ok {
		p.mu.Unlock()
		return "", identity.NewError(identity.KindIdentityNotFound, email)
	}
	if stored != pass {
		p.mu.Unlock()
		return "", identity.NewError(identity.KindInvalidCredential, email)
	}
	uid := p.uids[email]
	p.mu.Unlock()

	p.notify(identity.Event{Type: identity.EventSignedIn, UID: uid, Email: email})
	return uid, nil
}

func (p *stubProvider) CreateIdentity(_ context.Context, email, pass string) (string, error) {
	p.mu.Lock()
	if _, ok := p.identities[email]; ok {
		p.mu.Unlock()
		return "", identity.NewError(identity.KindAlreadyInUse, email)
	}
	uid := models.NewID()
	p.identities[email] = pass
	p.uids[email] = uid
	p.mu.Unlock()

	p.notify(identity.Event{Type: identity.EventSignedIn, UID: uid, Email: email})
	return uid, nil
}

func (p *stubProvider) DeleteIdentity(_ context.Context, uid string) error {
	p.mu.Lock()
	for email, id := range p.uids {
		if id == uid {
			delete(p.identities, email)
			delete(p.uids, email)
			break
		}
	}
	p.deleted = append(p.deleted, uid)
	p.mu.Unlock()

	p.notify(identity.Event{Type: identity.EventDeleted, UID: uid})
	return nil
}

func (p *stubProvider) SignOut(_ context.Context, uid string) error {
	p.mu.Lock()
	p.signedOut = append(p.signedOut, uid)
	p.mu.Unlock()

	p.notify(identity.Event{Type: identity.EventSignedOut, UID: uid})
	return nil
}

func (p *stubProvider) hasIdentity(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.identities[email]
	return ok
}
