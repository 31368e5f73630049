package sheets

import (
	"context"
	"time"

	"intake/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordAppender mirrors stored deposit records into a spreadsheet.
	RecordAppender interface {
		Append(ctx context.Context, r core.DepositRecord) (rowRef string, err error)
	}
)

// Header is the mirror sheet's column order (A:K).
var Header = []string{
	"Record ID",
	"Created At",
	"Full Name",
	"Mobile No",
	"Email",
	"Deposit Type",
	"Deposit Date",
	"Account No",
	"Amount",
	"Returned Amount",
	"Anonymous",
}

// Row renders r in Header order.
func Row(r core.DepositRecord, loc *time.Location) []any {
	created := ""
	if r.CreatedAt != nil {
		created = r.CreatedAt.In(loc).Format("2006-01-02 15:04:05")
	}
	date := ""
	if r.DepositDate != nil {
		date = *r.DepositDate
	}
	var amount, returned any = "", ""
	if r.Amount != nil {
		amount = *r.Amount
	}
	if r.ReturnedAmount != nil {
		returned = *r.ReturnedAmount
	}
	return []any{
		r.ID,
		created,
		r.FullName,
		r.MobileNo,
		r.Email,
		r.DepositType,
		date,
		r.AccountNo,
		amount,
		returned,
		r.IsAnonymous,
	}
}
