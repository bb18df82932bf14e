package credits

import (
	"fmt"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/errors"
)

// Amounts are the configurable credit amounts of the archive. They are
// loaded from configuration; the ledger never hardcodes them.
type Amounts struct {
	Signup   int `toml:"signup"`
	Upload   int `toml:"upload"`
	Download int `toml:"download"`
}

// DefaultAmounts returns the canonical amounts: +10 at account
// creation, +5 per upload, -2 per download.
func DefaultAmounts() Amounts {
	return Amounts{Signup: 10, Upload: 5, Download: 2}
}

// InsufficientCreditsError is returned when a debit would drive the
// balance negative. It carries the balance context so the caller can
// render an actionable message.
type InsufficientCreditsError struct {
	Required  int `json:"required"`
	Available int `json:"available"`
}

func (err InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", err.Required, err.Available)
}

// Code makes the error render as a 400 through the transport layer.
func (err InsufficientCreditsError) Code() int       { return 400 }
func (err InsufficientCreditsError) Message() string { return err.Error() }
func (err InsufficientCreditsError) Cause() error    { return nil }

var _ errors.Error = InsufficientCreditsError{}

// Ledger applies credit operations to a single user aggregate. Each
// operation runs inside one UserStore.Update transaction, so the
// balance check and the decrement of a debit are a single atomically
// visible step with respect to other operations on the same user.
type Ledger struct {
	store   paperbank.UserStore
	amounts Amounts
}

func NewLedger(store paperbank.UserStore, amounts Amounts) *Ledger {
	return &Ledger{store: store, amounts: amounts}
}

// CreditForUpload grants the upload amount and bumps the upload
// counter. It always succeeds: balances have no upper bound.
func (l *Ledger) CreditForUpload(userID int) (*paperbank.User, error) {
	return l.update(userID, func(user *paperbank.User) error {
		user.Credits += l.amounts.Upload
		user.UploadCount++
		return nil
	})
}

// DebitForDownload spends the download amount and bumps the download
// counter. When the balance cannot cover the amount the user is left
// untouched and an InsufficientCreditsError is returned.
func (l *Ledger) DebitForDownload(userID int) (*paperbank.User, error) {
	return l.update(userID, func(user *paperbank.User) error {
		if user.Credits < l.amounts.Download {
			return InsufficientCreditsError{
				Required:  l.amounts.Download,
				Available: user.Credits,
			}
		}

		user.Credits -= l.amounts.Download
		user.DownloadCount++
		return nil
	})
}

// ReverseUploadCredit takes back the credits granted for an upload,
// typically when the paper is deleted. When the user has already spent
// below the grant the reversal is silently skipped: balances never go
// negative, even at the price of an unreversed grant.
func (l *Ledger) ReverseUploadCredit(userID int) (*paperbank.User, error) {
	return l.update(userID, func(user *paperbank.User) error {
		if user.Credits < l.amounts.Upload {
			return nil
		}

		user.Credits -= l.amounts.Upload
		user.UploadCount--
		return nil
	})
}

func (l *Ledger) update(userID int, fn func(*paperbank.User) error) (*paperbank.User, error) {
	if err := l.store.Update(userID, fn); err != nil {
		return nil, err
	}

	user, err := l.store.Get(userID)
	if err != nil {
		return nil, err
	} else if user == nil {
		return nil, errors.New(fmt.Sprintf("<User %d> not found", userID), errors.NotFound())
	}

	return user, nil
}
