// Package otp issues and checks the one-time codes that confirm
// transaction intent out-of-band.
package otp

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/huyvuong1109/Financial-Management-Web/internal/models"
)

const (
	// TTL is the absolute lifetime of an issued code.
	TTL = 5 * time.Minute

	// MaxAttempts is the number of submissions after which a transaction
	// is locked out.
	MaxAttempts = 3
)

// Result is the outcome of a single code submission. Exactly one result is
// returned per Verify call.
type Result int

const (
	Valid Result = iota
	Invalid
	Expired
	LockedOut
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Expired:
		return "expired"
	case LockedOut:
		return "locked out"
	}

	return fmt.Sprintf("unknown result %d", int(r))
}

// Verifier issues and verifies codes. The clock and the random source are
// injected so that tests are deterministic.
type Verifier struct {
	now  func() time.Time
	rand *rand.Rand
}

// New returns a Verifier using the given clock and random source.
func New(now func() time.Time, source rand.Source) *Verifier {
	return &Verifier{
		now:  now,
		rand: rand.New(source),
	}
}

// NewDefault returns a Verifier with the wall clock and a time-seeded
// random source. The codes are paired with attempt and expiry limits, so
// non-cryptographic randomness is acceptable here.
func NewDefault() *Verifier {
	return New(time.Now, rand.NewSource(time.Now().UnixNano()))
}

// Issue attaches a fresh 6-digit code with a 5-minute expiry to the
// transaction and resets the attempt count. Re-issuing invalidates the
// prior code. The code is returned for out-of-band delivery.
func (v *Verifier) Issue(transaction *models.Transaction) string {
	code := fmt.Sprintf("%06d", v.rand.Intn(900000)+100000)

	transaction.VerificationCode = code
	transaction.ExpiresAt = v.now().Add(TTL).In(time.UTC)
	transaction.AttemptCount = 0

	return code
}

// Verify checks a submitted code against the transaction and mutates the
// attempt count in memory. Persisting the transaction is the caller's
// responsibility, as is rolling back funds on Expired and LockedOut.
func (v *Verifier) Verify(transaction *models.Transaction, submitted string) Result {
	if v.now().After(transaction.ExpiresAt) {
		return Expired
	}

	if transaction.AttemptCount >= MaxAttempts {
		return LockedOut
	}

	if transaction.VerificationCode != submitted {
		transaction.AttemptCount++
		if transaction.AttemptCount >= MaxAttempts {
			return LockedOut
		}

		return Invalid
	}

	return Valid
}
