package services

import (
	"context"
	"testing"

	"chitfund-backoffice/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type paymentFixture struct {
	svc            *PaymentService
	paymentRepo    *stubPaymentRepo
	collectionRepo *stubCollectionRepo
	customerRepo   *stubCustomerRepo
	activityRepo   *stubActivityRepo
	loanRepo       *stubLoanRepo
}

func newPaymentFixture() *paymentFixture {
	log := zap.NewNop()
	paymentRepo := newStubPaymentRepo()
	collectionRepo := newStubCollectionRepo()
	customerRepo := newStubCustomerRepo()
	activityRepo := newStubActivityRepo()
	loanRepo := newStubLoanRepo()

	aggregation := NewAggregationService(customerRepo, loanRepo, log)
	loanService := NewLoanService(loanRepo, customerRepo, activityRepo, aggregation, log)
	svc := NewPaymentService(paymentRepo, collectionRepo, customerRepo, activityRepo, loanService, log)

	return &paymentFixture{
		svc:            svc,
		paymentRepo:    paymentRepo,
		collectionRepo: collectionRepo,
		customerRepo:   customerRepo,
		activityRepo:   activityRepo,
		loanRepo:       loanRepo,
	}
}

func (f *paymentFixture) seed(t *testing.T, outstanding float64) (customerID, loanID string) {
	t.Helper()
	ctx := context.Background()

	customer := &models.Customer{ID: "cust-1", AgentID: "agent-1", Name: "Ravi"}
	require.NoError(t, f.customerRepo.Create(ctx, customer))

	loan := &models.Loan{
		ID: "loan-1", CustomerID: "cust-1", AgentID: "agent-1",
		Amount: 10000, DisbursedAmount: 10000,
		PaidAmount: 10000 - outstanding, OutstandingAmount: outstanding,
		Status: models.LoanStatusActive, StartDate: models.NowMillis(),
	}
	require.NoError(t, f.loanRepo.Create(ctx, loan))
	return "cust-1", "loan-1"
}

func TestRecordPaymentFanOut(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()
	customerID, loanID := f.seed(t, 6000)

	payment, err := f.svc.Record(ctx, &PaymentInput{
		CustomerID: customerID, LoanID: loanID, Amount: 1000, CollectedBy: "agent-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCredit, payment.Type)

	// Loan balances moved
	loan, err := f.loanRepo.GetByID(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, loan.PaidAmount)
	assert.Equal(t, 5000.0, loan.OutstandingAmount)
	assert.Equal(t, models.LoanStatusActive, loan.Status)

	// Collection tracker lazily created from the pre-payment balance
	record, err := f.collectionRepo.Find(ctx, "agent-1", customerID, loanID)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, record.TotalDue)
	assert.Equal(t, 1000.0, record.Paid)
	assert.Equal(t, 5000.0, record.Outstanding)
	assert.Equal(t, models.CollectionPending, record.Status)

	// Customer cache refreshed and the last-paid marker moved
	customer, err := f.customerRepo.GetByID(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, customer.CurrentDueAmount)
	assert.Equal(t, 5000.0, customer.TotalPaidAmount)
	assert.Equal(t, payment.Date, customer.LastPaidDate)

	// Audit trail appended
	assert.Len(t, f.activityRepo.ofType(models.ActivityPayment), 1)
}

func TestRecordPaymentReusesCollectionTracker(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()
	customerID, loanID := f.seed(t, 6000)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Record(ctx, &PaymentInput{
			CustomerID: customerID, LoanID: loanID, Amount: 1000, CollectedBy: "agent-1",
		})
		require.NoError(t, err)
	}

	records, err := f.collectionRepo.GetByAgentID(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 4000.0, records[0].Outstanding)
}

func TestRecordPaymentClosesLoanAtZero(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()
	customerID, loanID := f.seed(t, 500)

	_, err := f.svc.Record(ctx, &PaymentInput{
		CustomerID: customerID, LoanID: loanID, Amount: 500, CollectedBy: "agent-1",
	})
	require.NoError(t, err)

	loan, err := f.loanRepo.GetByID(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusClosed, loan.Status)
	assert.Zero(t, loan.OutstandingAmount)
	assert.NotNil(t, loan.EndDate)

	// A closed loan leaves the due-side aggregates but keeps its paid total
	customer, err := f.customerRepo.GetByID(ctx, customerID)
	require.NoError(t, err)
	assert.Zero(t, customer.CurrentDueAmount)
	assert.Zero(t, customer.ActiveLoansCount)
	assert.Equal(t, 10000.0, customer.TotalPaidAmount)
}

func TestRecordPaymentOverpaymentClamps(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()
	customerID, loanID := f.seed(t, 300)

	_, err := f.svc.Record(ctx, &PaymentInput{
		CustomerID: customerID, LoanID: loanID, Amount: 1000, CollectedBy: "agent-1",
	})
	require.NoError(t, err)

	loan, err := f.loanRepo.GetByID(ctx, loanID)
	require.NoError(t, err)
	assert.Zero(t, loan.OutstandingAmount)
	assert.Equal(t, models.LoanStatusClosed, loan.Status)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	f := newPaymentFixture()
	customerID, loanID := f.seed(t, 6000)

	_, err := f.svc.Record(context.Background(), &PaymentInput{
		CustomerID: customerID, LoanID: loanID, Amount: 0, CollectedBy: "agent-1",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentAmount)
	assert.Empty(t, f.paymentRepo.payments)
}

func TestRecordPaymentUnknownLoan(t *testing.T) {
	f := newPaymentFixture()
	customerID, _ := f.seed(t, 6000)

	_, err := f.svc.Record(context.Background(), &PaymentInput{
		CustomerID: customerID, LoanID: "nope", Amount: 100, CollectedBy: "agent-1",
	})
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestDeleteUnknownPayment(t *testing.T) {
	f := newPaymentFixture()

	err := f.svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestDeletePaymentLeavesBalances(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()
	customerID, loanID := f.seed(t, 6000)

	payment, err := f.svc.Record(ctx, &PaymentInput{
		CustomerID: customerID, LoanID: loanID, Amount: 1000, CollectedBy: "agent-1",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, payment.ID))

	// The ledger entry is gone but nothing rolls back
	loan, err := f.loanRepo.GetByID(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, loan.OutstandingAmount)
}
