// Package firestore stores deposit records as flat documents in a Firestore
// collection, one document per record.
package firestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"intake/internal/core"
	"intake/internal/records"
)

// Document field names.
const (
	fieldFullName       = "full_name"
	fieldFirstName      = "first_name"
	fieldMiddleName     = "middle_name"
	fieldLastName       = "last_name"
	fieldMobileNo       = "mobile_no"
	fieldEmail          = "email"
	fieldDepositType    = "deposit_type"
	fieldDepositDate    = "deposit_date"
	fieldAccountNo      = "account_no"
	fieldAmount         = "amount"
	fieldReturnedAmount = "returned_amount"
	fieldIsAnonymous    = "is_anonymous"
	fieldCreatedAt      = "created_at"
)

type Store struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// New opens a Firestore client for projectID.
func New(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client, collection: collection, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Create implements records.Writer.
func (s *Store) Create(ctx context.Context, r core.DepositRecord) (string, error) {
	r = records.Stamp(r, s.now())
	if _, err := s.client.Collection(s.collection).Doc(r.ID).Set(ctx, toDoc(r)); err != nil {
		return "", fmt.Errorf("firestore set %s: %w", r.ID, err)
	}
	return r.ID, nil
}

// ListAll implements records.Lister.
func (s *Store) ListAll(ctx context.Context) ([]core.DepositRecord, error) {
	docs, err := s.client.Collection(s.collection).
		OrderBy(fieldCreatedAt, firestore.Desc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore list: %w", err)
	}
	out := make([]core.DepositRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d.Ref.ID, d.Data()))
	}
	return out, nil
}

// Get implements records.Getter.
func (s *Store) Get(ctx context.Context, id string) (core.DepositRecord, error) {
	d, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return core.DepositRecord{}, records.ErrNotFound
	}
	if err != nil {
		return core.DepositRecord{}, fmt.Errorf("firestore get %s: %w", id, err)
	}
	return fromDoc(d.Ref.ID, d.Data()), nil
}

// Ping reads at most one document to prove the collection is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(s.collection).Limit(1).Documents(ctx).GetAll()
	return err
}

func toDoc(r core.DepositRecord) map[string]any {
	doc := map[string]any{
		fieldFullName:       r.FullName,
		fieldFirstName:      r.FirstName,
		fieldMiddleName:     r.MiddleName,
		fieldLastName:       r.LastName,
		fieldMobileNo:       r.MobileNo,
		fieldEmail:          r.Email,
		fieldDepositType:    r.DepositType,
		fieldDepositDate:    nil,
		fieldAccountNo:      r.AccountNo,
		fieldAmount:         nil,
		fieldReturnedAmount: nil,
		fieldIsAnonymous:    r.IsAnonymous,
	}
	if r.DepositDate != nil {
		doc[fieldDepositDate] = *r.DepositDate
	}
	if r.Amount != nil {
		doc[fieldAmount] = *r.Amount
	}
	if r.ReturnedAmount != nil {
		doc[fieldReturnedAmount] = *r.ReturnedAmount
	}
	if r.CreatedAt != nil {
		doc[fieldCreatedAt] = *r.CreatedAt
	}
	return doc
}

// fromDoc is lenient: documents written by older clients may hold numbers
// where strings are expected (and digit strings for amounts), or miss fields
// entirely.
func fromDoc(id string, data map[string]any) core.DepositRecord {
	r := core.DepositRecord{
		ID:             id,
		FullName:       str(data[fieldFullName]),
		FirstName:      str(data[fieldFirstName]),
		MiddleName:     str(data[fieldMiddleName]),
		LastName:       str(data[fieldLastName]),
		MobileNo:       str(data[fieldMobileNo]),
		Email:          str(data[fieldEmail]),
		DepositType:    str(data[fieldDepositType]),
		AccountNo:      str(data[fieldAccountNo]),
	}
	if v, ok := data[fieldDepositDate].(string); ok && v != "" {
		r.DepositDate = &v
	}
	if v, ok := num(data[fieldAmount]); ok {
		r.Amount = &v
	}
	if v, ok := num(data[fieldReturnedAmount]); ok {
		r.ReturnedAmount = &v
	}
	if v, ok := data[fieldIsAnonymous].(bool); ok {
		r.IsAnonymous = v
	}
	if v, ok := data[fieldCreatedAt].(time.Time); ok {
		v = v.UTC()
		r.CreatedAt = &v
	}
	return r
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func num(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
