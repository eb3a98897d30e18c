package orders

import (
	"context"
	"fmt"
	"time"

	"purchase-reconciler/core/database"

	"gorm.io/gorm"
)

// Record is the locally persisted order state of the current user.
// OrderID is empty exactly when no purchase has been durably recorded locally.
type Record struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

// Store gives read access to the persisted identifiers. It has no write contract.
type Store interface {
	OrderID(ctx context.Context) (string, error)
	PaymentID(ctx context.Context) (string, error)
}

// RecordReader is implemented by stores that can read both identifiers from
// one consistent snapshot.
type RecordReader interface {
	Record(ctx context.Context) (Record, error)
}

// Load reads both identifiers from the store, in one read when s is a
// RecordReader.
func Load(ctx context.Context, s Store) (Record, error) {
	if r, ok := s.(RecordReader); ok {
		record, err := r.Record(ctx)
		if err != nil {
			return Record{}, fmt.Errorf("failed to read local order record: %w", err)
		}
		return record, nil
	}

	orderID, err := s.OrderID(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read order id: %w", err)
	}
	paymentID, err := s.PaymentID(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read payment id: %w", err)
	}
	return Record{OrderID: orderID, PaymentID: paymentID}, nil
}

// LocalOrder is the row the host application writes when a purchase completes.
type LocalOrder struct {
	ID        uint      `gorm:"primaryKey"`
	AccountID string    `gorm:"column:account_id;size:128;index"`
	OrderID   string    `gorm:"column:order_id;size:128"`
	PaymentID string    `gorm:"column:payment_id;size:128"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name used by LocalOrder.
func (LocalOrder) TableName() string {
	return "local_orders"
}

var requiredColumns = []string{"account_id", "order_id", "payment_id", "updated_at"}

// GormStore reads the newest local order row of one account.
type GormStore struct {
	db      *gorm.DB
	account string
}

// NewGormStore creates a store for the given account.
func NewGormStore(db *gorm.DB, account string) *GormStore {
	return &GormStore{db: db, account: account}
}

// OrderID returns the order id of the newest row, or "" when there is none.
func (s *GormStore) OrderID(ctx context.Context) (string, error) {
	row, err := s.latest(ctx)
	if err != nil {
		return "", err
	}
	return row.OrderID, nil
}

// PaymentID returns the payment id of the newest row, or "" when there is none.
func (s *GormStore) PaymentID(ctx context.Context) (string, error) {
	row, err := s.latest(ctx)
	if err != nil {
		return "", err
	}
	return row.PaymentID, nil
}

// Record returns both identifiers of the newest row from a single query.
func (s *GormStore) Record(ctx context.Context) (Record, error) {
	row, err := s.latest(ctx)
	if err != nil {
		return Record{}, err
	}
	return Record{OrderID: row.OrderID, PaymentID: row.PaymentID}, nil
}

func (s *GormStore) latest(ctx context.Context) (LocalOrder, error) {
	var row LocalOrder
	err := s.db.WithContext(ctx).
		Where("account_id = ?", s.account).
		Order("updated_at DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return LocalOrder{}, fmt.Errorf("failed to load local order for account %s: %w", s.account, err)
	}
	return row, nil
}

// VerifySchema checks that the local order table has the columns the store reads.
func (s *GormStore) VerifySchema() error {
	missing, err := database.MissingColumns(s.db, LocalOrder{}.TableName(), requiredColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns %v", LocalOrder{}.TableName(), missing)
	}
	return nil
}

// StaticStore serves fixed identifiers, e.g. from command line flags.
type StaticStore struct {
	Order   string
	Payment string
}

// OrderID implements Store.
func (s StaticStore) OrderID(context.Context) (string, error) {
	return s.Order, nil
}

// PaymentID implements Store.
func (s StaticStore) PaymentID(context.Context) (string, error) {
	return s.Payment, nil
}
