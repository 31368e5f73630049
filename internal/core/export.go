package core

// ExportHeader is the fixed column order of the spreadsheet export.
var ExportHeader = []string{
	"Sr no",
	"firstname",
	"middle name",
	"last name",
	"deposit_type",
	"account_no",
	"invested_amount",
	"returned amount",
}

// ExportRow is one projected record, in ExportHeader order.
type ExportRow struct {
	SrNo           int
	FirstName      string
	MiddleName     string
	LastName       string
	DepositType    string
	AccountNo      string
	InvestedAmount *float64
	ReturnedAmount *float64
}

// ExportRows projects records into spreadsheet rows numbered from 1.
func ExportRows(records []DepositRecord) []ExportRow {
	rows := make([]ExportRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, ExportRow{
			SrNo:           i + 1,
			FirstName:      r.FirstName,
			MiddleName:     r.MiddleName,
			LastName:       r.LastName,
			DepositType:    r.DepositType,
			AccountNo:      r.AccountNo,
			InvestedAmount: nonZero(r.Amount),
			ReturnedAmount: nonZero(r.ReturnedAmount),
		})
	}
	return rows
}

// nonZero copies v, mapping null and zero to null. Zero amounts export as
// empty cells.
func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	c := *v
	return &c
}

func cell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// Cells returns the row values in header order. Missing amounts are empty
// cells.
func (r ExportRow) Cells() []any {
	return []any{
		r.SrNo,
		r.FirstName,
		r.MiddleName,
		r.LastName,
		r.DepositType,
		r.AccountNo,
		cell(r.InvestedAmount),
		cell(r.ReturnedAmount),
	}
}
