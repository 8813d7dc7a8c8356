package transaction_test

import (
	"context"
	"log"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huyvuong1109/Financial-Management-Web/internal/ledger"
	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
	"github.com/huyvuong1109/Financial-Management-Web/internal/notify"
	"github.com/huyvuong1109/Financial-Management-Web/internal/otp"
	"github.com/huyvuong1109/Financial-Management-Web/internal/transaction"
	"github.com/huyvuong1109/Financial-Management-Web/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// codeRecorder records sent verification codes instead of mailing them.
type codeRecorder struct {
	emails []string
	codes  []string
}

func (r *codeRecorder) SendCode(email, code string) {
	r.emails = append(r.emails, email)
	r.codes = append(r.codes, code)
}

func (r *codeRecorder) last() string {
	return r.codes[len(r.codes)-1]
}

// budgetRecorder records accounts whose budgets were re-checked.
type budgetRecorder struct {
	accounts []uuid.UUID
}

func (r *budgetRecorder) CheckAndSendAlerts(_ context.Context, accountID uuid.UUID) error {
	r.accounts = append(r.accounts, accountID)
	return nil
}

type TestSuiteStandard struct {
	suite.Suite
	engine  *transaction.Engine
	ledger  *ledger.Ledger
	codes   *codeRecorder
	budgets *budgetRecorder
	now     time.Time
}

// Pseudo-Test run by go test that runs the test suite.
func TestSuite(t *testing.T) {
	suite.Run(t, new(TestSuiteStandard))
}

// SetupTest is called before each test in the suite.
func (suite *TestSuiteStandard) SetupTest() {
	err := models.Connect(test.TmpFile(suite.T()))
	if err != nil {
		log.Fatalf("Database initialization failed with: %#v", err)
	}

	suite.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	suite.codes = &codeRecorder{}
	suite.budgets = &budgetRecorder{}
	suite.ledger = ledger.New(models.DB)

	verifier := otp.New(func() time.Time { return suite.now }, rand.NewSource(1))
	suite.engine = transaction.NewEngine(models.DB, verifier, suite.codes, suite.budgets, notify.NopPaymentRecorder{})
}

// TearDownTest is called after each test in the suite.
func (suite *TestSuiteStandard) TearDownTest() {
	sqlDB, _ := models.DB.DB()
	sqlDB.Close()
}

func (suite *TestSuiteStandard) createTestAccount(available decimal.Decimal) models.Account {
	account := models.Account{Name: uuid.New().String(), Email: "holder@example.com"}
	if err := models.DB.Create(&account).Error; err != nil {
		suite.Assert().FailNow("Account could not be saved", "Error: %s", err)
	}

	if available.IsPositive() {
		if err := suite.ledger.CreditExternal(account.ID, available); err != nil {
			suite.Assert().FailNow("Balance could not be funded", "Error: %s", err)
		}
	}

	return account
}

func (suite *TestSuiteStandard) balance(accountID uuid.UUID) models.Balance {
	balance, err := suite.ledger.Get(accountID)
	suite.Require().Nil(err)
	return balance
}

// createTestTransfer starts a transfer between two freshly funded accounts.
func (suite *TestSuiteStandard) createTestTransfer(available, amount decimal.Decimal) (models.Transaction, models.Account, models.Account) {
	from := suite.createTestAccount(available)
	to := suite.createTestAccount(decimal.Zero)

	created, err := suite.engine.Create(context.Background(), from.ID, to.ID, amount, nil)
	suite.Require().Nil(err)

	return created, from, to
}

func (suite *TestSuiteStandard) TestCreate() {
	created, from, _ := suite.createTestTransfer(decimal.NewFromInt(1000000), decimal.NewFromInt(300000))

	suite.Assert().Equal(models.StatusPending, created.Status)
	suite.Assert().Equal(models.TypeTransfer, created.Type)
	suite.Assert().Equal(0, created.AttemptCount)
	suite.Assert().Equal(suite.now.Add(otp.TTL), created.ExpiresAt)

	// The amount is held, not gone.
	balance := suite.balance(from.ID)
	suite.Assert().True(balance.Available.Equal(decimal.NewFromInt(700000)), "available is %s", balance.Available)
	suite.Assert().True(balance.Hold.Equal(decimal.NewFromInt(300000)), "hold is %s", balance.Hold)

	// The code went to the payer's address and is not part of the response.
	suite.Require().Len(suite.codes.codes, 1)
	suite.Assert().Equal(from.Email, suite.codes.emails[0])
	suite.Assert().Len(suite.codes.last(), 6)
}

func (suite *TestSuiteStandard) TestCreateSameAccount() {
	account := suite.createTestAccount(decimal.NewFromInt(100))

	_, err := suite.engine.Create(context.Background(), account.ID, account.ID, decimal.NewFromInt(10), nil)
	suite.Assert().ErrorIs(err, transaction.ErrSameAccount)
}

func (suite *TestSuiteStandard) TestCreateAmountNotPositive() {
	from := suite.createTestAccount(decimal.NewFromInt(100))
	to := suite.createTestAccount(decimal.Zero)

	_, err := suite.engine.Create(context.Background(), from.ID, to.ID, decimal.Zero, nil)
	suite.Assert().ErrorIs(err, transaction.ErrAmountNotPositive)

	_, err = suite.engine.Create(context.Background(), from.ID, to.ID, decimal.NewFromInt(-5), nil)
	suite.Assert().ErrorIs(err, transaction.ErrAmountNotPositive)
}

func (suite *TestSuiteStandard) TestCreateUnknownAccounts() {
	account := suite.createTestAccount(decimal.NewFromInt(100))

	_, err := suite.engine.Create(context.Background(), uuid.New(), account.ID, decimal.NewFromInt(10), nil)
	suite.Assert().ErrorIs(err, models.ErrAccountNotFound)

	_, err = suite.engine.Create(context.Background(), account.ID, uuid.New(), decimal.NewFromInt(10), nil)
	suite.Assert().ErrorIs(err, models.ErrAccountNotFound)
}

func (suite *TestSuiteStandard) TestCreateInsufficientFunds() {
	from := suite.createTestAccount(decimal.NewFromInt(100))
	to := suite.createTestAccount(decimal.Zero)

	_, err := suite.engine.Create(context.Background(), from.ID, to.ID, decimal.NewFromInt(101), nil)
	suite.Assert().ErrorIs(err, ledger.ErrInsufficientFunds)

	// Nothing was persisted and no code was sent.
	suite.Assert().Empty(suite.codes.codes)
	suite.Assert().True(suite.balance(from.ID).Hold.IsZero())
}

func (suite *TestSuiteStandard) TestCreateForeignCategory() {
	from := suite.createTestAccount(decimal.NewFromInt(100))
	to := suite.createTestAccount(decimal.Zero)

	category := models.Category{AccountID: to.ID, Name: "Groceries"}
	suite.Require().Nil(models.DB.Create(&category).Error)

	_, err := suite.engine.Create(context.Background(), from.ID, to.ID, decimal.NewFromInt(10), &category.ID)
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

// The scenario the whole flow exists for: create, verify, approve.
func (suite *TestSuiteStandard) TestHappyPath() {
	created, from, to := suite.createTestTransfer(decimal.NewFromInt(1000000), decimal.NewFromInt(300000))

	verified, result, err := suite.engine.Verify(context.Background(), created.ID, suite.codes.last())
	suite.Require().Nil(err)
	suite.Assert().Equal(otp.Valid, result)
	suite.Assert().Equal(models.StatusAwaitingApproval, verified.Status)

	approved, err := suite.engine.Approve(context.Background(), created.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(models.StatusApproved, approved.Status)

	suite.Assert().True(suite.balance(from.ID).Available.Equal(decimal.NewFromInt(700000)))
	suite.Assert().True(suite.balance(from.ID).Hold.IsZero())
	suite.Assert().True(suite.balance(to.ID).Available.Equal(decimal.NewFromInt(300000)))

	// Settlement wrote the history record and triggered the budget check.
	history, err := suite.engine.History(from.ID)
	suite.Require().Nil(err)
	suite.Require().Len(history, 1)
	suite.Assert().Equal(created.ID, history[0].ID)
	suite.Assert().Equal(models.StatusApproved, history[0].Status)
	suite.Assert().Equal([]uuid.UUID{from.ID}, suite.budgets.accounts)
}

func (suite *TestSuiteStandard) TestVerifyWrongCode() {
	created, from, _ := suite.createTestTransfer(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	updated, result, err := suite.engine.Verify(context.Background(), created.ID, "000000")
	suite.Require().Nil(err)
	suite.Assert().Equal(otp.Invalid, result)
	suite.Assert().Equal(models.StatusPending, updated.Status)
	suite.Assert().Equal(1, updated.AttemptCount)

	// Funds stay held while the transaction is still PENDING.
	suite.Assert().True(suite.balance(from.ID).Hold.Equal(decimal.NewFromInt(100)))
}

func (suite *TestSuiteStandard) TestVerifyLockoutRollsBack() {
	created, from, _ := suite.createTestTransfer(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	for _, wrong := range []string{"000000", "111111"} {
		_, result, err := suite.engine.Verify(context.Background(), created.ID, wrong)
		suite.Require().Nil(err)
		suite.Assert().Equal(otp.Invalid, result)
	}

	failed, result, err := suite.engine.Verify(context.Background(), created.ID, "222222")
	suite.Require().Nil(err)
	suite.Assert().Equal(otp.LockedOut, result)
	suite.Assert().Equal(models.StatusFailed, failed.Status)

	// The held funds returned to the payer in full.
	balance := suite.balance(from.ID)
	suite.Assert().True(balance.Available.Equal(decimal.NewFromInt(1000)), "available is %s", balance.Available)
	suite.Assert().True(balance.Hold.IsZero())

	// FAILED is terminal, even for the correct code.
	_, _, err = suite.engine.Verify(context.Background(), created.ID, suite.codes.last())
	suite.Assert().ErrorIs(err, transaction.ErrInvalidStateTransition)

	history, err := suite.engine.History(from.ID)
	suite.Require().Nil(err)
	suite.Require().Len(history, 1)
	suite.Assert().Equal(models.StatusFailed, history[0].Status)
}

func (suite *TestSuiteStandard) TestVerifyExpiredRollsBack() {
	created, from, _ := suite.createTestTransfer(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	suite.now = suite.now.Add(otp.TTL + time.Minute)

	expired, result, err := suite.engine.Verify(context.Background(), created.ID, suite.codes.last())
	suite.Require().Nil(err)
	suite.Assert().Equal(otp.Expired, result)
	suite.Assert().Equal(models.StatusExpired, expired.Status)

	balance := suite.balance(from.ID)
	suite.Assert().True(balance.Available.Equal(decimal.NewFromInt(1000)))
	suite.Assert().True(balance.Hold.IsZero())
}

func (suite *TestSuiteStandard) TestVerifyUnknownTransaction() {
	_, _, err := suite.engine.Verify(context.Background(), uuid.New(), "000000")
	suite.Assert().ErrorIs(err, transaction.ErrTransactionNotFound)
}

func (suite *TestSuiteStandard) TestApproveRequiresVerification() {
	created, _, _ := suite.createTestTransfer(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	_, err := suite.engine.Approve(context.Background(), created.ID)
	suite.Assert().ErrorIs(err, transaction.ErrInvalidStateTransition)
}

func (suite *TestSuiteStandard) TestApproveTwice() {
	created, _, _ := suite.createTestTransfer(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	_, _, err := suite.engine.Verify(context.Background(), created.ID, suite.codes.last())
	suite.Require().Nil(err)

	_, err = suite.engine.Approve(context.Background(), created.ID)
	suite.Require().Nil(err)

	// The second approval must not settle again.
	_, err = suite.engine.Approve(context.Background(), created.ID)
	suite.Assert().ErrorIs(err, transaction.ErrInvalidStateTransition)
}

func (suite *TestSuiteStandard) TestReject() {
	created, from, to := suite.createTestTransfer(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	_, _, err := suite.engine.Verify(context.Background(), created.ID, suite.codes.last())
	suite.Require().Nil(err)

	rejected, err := suite.engine.Reject(context.Background(), created.ID)
	suite.Require().Nil(err)
	suite.Assert().Equal(models.StatusRejected, rejected.Status)

	suite.Assert().True(suite.balance(from.ID).Available.Equal(decimal.NewFromInt(1000)))
	suite.Assert().True(suite.balance(from.ID).Hold.IsZero())
	suite.Assert().True(suite.balance(to.ID).Available.IsZero())

	_, err = suite.engine.Approve(context.Background(), created.ID)
	suite.Assert().ErrorIs(err, transaction.ErrInvalidStateTransition)
}

func (suite *TestSuiteStandard) TestListAwaitingApproval() {
	created, _, _ := suite.createTestTransfer(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	transactions, err := suite.engine.ListAwaitingApproval()
	suite.Require().Nil(err)
	suite.Assert().Empty(transactions)

	_, _, err = suite.engine.Verify(context.Background(), created.ID, suite.codes.last())
	suite.Require().Nil(err)

	transactions, err = suite.engine.ListAwaitingApproval()
	suite.Require().Nil(err)
	suite.Require().Len(transactions, 1)
	suite.Assert().Equal(created.ID, transactions[0].ID)
}

func (suite *TestSuiteStandard) TestRecordDeposit() {
	account := suite.createTestAccount(decimal.Zero)

	recorded, err := suite.engine.RecordImmediate(context.Background(), account.ID, decimal.NewFromInt(500), models.TypeDeposit, nil)
	suite.Require().Nil(err)
	suite.Assert().Equal(models.StatusApproved, recorded.Status)
	suite.Assert().Equal(account.ID, recorded.ToAccountID)

	suite.Assert().True(suite.balance(account.ID).Available.Equal(decimal.NewFromInt(500)))

	// Deposits are not spend, no budget check runs.
	suite.Assert().Empty(suite.budgets.accounts)

	history, err := suite.engine.History(account.ID)
	suite.Require().Nil(err)
	suite.Require().Len(history, 1)
	suite.Assert().Equal(models.TypeDeposit, history[0].Type)
}

func (suite *TestSuiteStandard) TestRecordWithdrawal() {
	account := suite.createTestAccount(decimal.NewFromInt(500))

	recorded, err := suite.engine.RecordImmediate(context.Background(), account.ID, decimal.NewFromInt(200), models.TypeWithdrawal, nil)
	suite.Require().Nil(err)
	suite.Assert().Equal(account.ID, recorded.FromAccountID)

	suite.Assert().True(suite.balance(account.ID).Available.Equal(decimal.NewFromInt(300)))

	// Withdrawals are spend, the budgets get re-checked.
	suite.Assert().Equal([]uuid.UUID{account.ID}, suite.budgets.accounts)
}

func (suite *TestSuiteStandard) TestRecordWithdrawalInsufficientFunds() {
	account := suite.createTestAccount(decimal.NewFromInt(100))

	_, err := suite.engine.RecordImmediate(context.Background(), account.ID, decimal.NewFromInt(101), models.TypeWithdrawal, nil)
	suite.Assert().ErrorIs(err, ledger.ErrInsufficientFunds)

	history, err := suite.engine.History(account.ID)
	suite.Require().Nil(err)
	suite.Assert().Empty(history)
}

func (suite *TestSuiteStandard) TestRecordImmediateRejectsTransfer() {
	account := suite.createTestAccount(decimal.NewFromInt(100))

	_, err := suite.engine.RecordImmediate(context.Background(), account.ID, decimal.NewFromInt(10), models.TypeTransfer, nil)
	suite.Assert().ErrorIs(err, transaction.ErrUnsupportedType)
}

func (suite *TestSuiteStandard) TestGetUnknownTransaction() {
	_, err := suite.engine.Get(uuid.New())
	suite.Assert().ErrorIs(err, transaction.ErrTransactionNotFound)
}
