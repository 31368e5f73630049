package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Instrument types offered by the intake form.
const (
	DepositFixed     = "Fixed Deposit (FD)"
	DepositRecurring = "Recurring Deposit (RD)"
	DepositSavings   = "Savings Account"
	DepositCurrent   = "Current Account"
	DepositSIP       = "SIP / Mutual Fund"
	DepositOther     = "Other"
)

// DepositTypes lists the selectable instrument types in display order.
var DepositTypes = []string{
	DepositFixed,
	DepositRecurring,
	DepositSavings,
	DepositCurrent,
	DepositSIP,
	DepositOther,
}

type (
	// PersonalDetails are the client fields shared by every entry of a submission.
	PersonalDetails struct {
		FirstName  string
		MiddleName string
		LastName   string
		MobileNo   string
		Email      string
	}

	// EntryDraft is the entry currently being edited, before it is accumulated.
	EntryDraft struct {
		DepositType      string
		OtherDepositType string
		DepositDate      string // yyyy-mm-dd
		AccountNo        string
		Amount           string
		ReturnedAmount   string
	}

	// FinancialEntry is an accepted entry. It is never mutated after creation.
	FinancialEntry struct {
		ID             string
		DepositType    string
		DepositDate    string
		AccountNo      string
		Amount         string
		ReturnedAmount string
	}

	// DepositRecord is the stored document, one per entry of a submission.
	DepositRecord struct {
		ID             string
		FullName       string
		FirstName      string
		MiddleName     string
		LastName       string
		MobileNo       string
		Email          string
		DepositType    string
		DepositDate    *string
		AccountNo      string
		Amount         *float64
		ReturnedAmount *float64
		IsAnonymous    bool
		CreatedAt      *time.Time
	}
)

var (
	ErrMissingRequired   = errors.New("missing required personal details")
	ErrMissingMandatory  = fmt.Errorf("%w: first name, last name and mobile number", ErrMissingRequired)
	ErrMissingClientInfo = fmt.Errorf("%w: client information", ErrMissingRequired)
	ErrInvalidMobile     = errors.New("invalid mobile number")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrNoEntries         = errors.New("no deposit entries")

	ErrMissingDepositType = errors.New("missing deposit type")
	ErrMissingAmount      = errors.New("missing principal amount")
	ErrFutureDepositDate  = errors.New("deposit date is in the future")
)

var messages = map[error]string{
	ErrMissingMandatory:   "Please fill in all mandatory fields: First Name, Last Name, and Mobile Number.",
	ErrMissingClientInfo:  "Please fill in required client information.",
	ErrInvalidMobile:      "Invalid Mobile Number. Please enter exactly 10 digits.",
	ErrInvalidEmail:       "Invalid Email Address format.",
	ErrNoEntries:          "Please add at least one deposit entry.",
	ErrMissingDepositType: "Please select Instrument Type.",
	ErrMissingAmount:      "Please enter Principal Amount.",
	ErrFutureDepositDate:  "Deposit date cannot be in the future.",
}

// Message returns the user-facing text for a validation error, or "" when
// err is not one of the core validation errors.
func Message(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return ""
}

// FullName joins the name parts with single spaces.
func (p PersonalDetails) FullName() string {
	return strings.Join(strings.Fields(p.FirstName+" "+p.MiddleName+" "+p.LastName), " ")
}

// NewDepositRecord flattens the personal details and one entry into a record.
// ID and CreatedAt are left for the writer to assign.
func NewDepositRecord(p PersonalDetails, e FinancialEntry) DepositRecord {
	rec := DepositRecord{
		FullName:       p.FullName(),
		FirstName:      p.FirstName,
		MiddleName:     p.MiddleName,
		LastName:       p.LastName,
		MobileNo:       p.MobileNo,
		Email:          p.Email,
		DepositType:    e.DepositType,
		AccountNo:      e.AccountNo,
		Amount:         parseOptionalAmount(e.Amount),
		ReturnedAmount: parseOptionalAmount(e.ReturnedAmount),
		IsAnonymous:    false,
	}
	if e.DepositDate != "" {
		d := e.DepositDate
		rec.DepositDate = &d
	}
	return rec
}

// parseOptionalAmount coerces a sanitised amount to a number. Blank or
// unparsable input is stored as null.
func parseOptionalAmount(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}
