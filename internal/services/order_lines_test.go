package services

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-storefront/internal/models"
)

type fakeOrderGetter struct {
	orders map[int64]*models.OrderDB
	err    error
}

func (f *fakeOrderGetter) GetByID(ctx context.Context, id int64) (*models.OrderDB, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[id], nil
}

type fakeProductGetter struct {
	products map[int64]*models.ProductDB
	err      error
}

func (f *fakeProductGetter) GetByID(ctx context.Context, id int64) (*models.ProductDB, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products[id], nil
}

type lineKey struct {
	orderID   int64
	productID int64
}

// fakeLineStore is an in-memory line store implementing LineReader and
// LineWriter, keyed by (order_id, product_id). It models Postgres
// transaction semantics: once any statement fails, every later statement
// in the same store fails too, the way an aborted transaction rejects
// everything until rollback.
type fakeLineStore struct {
	lines     map[lineKey]*models.OrderProductDB
	names     map[int64]string
	nextID    int64
	upsertErr error
	updateErr error
	readErr   error
	aborted   bool
}

var errTxAborted = errors.New("current transaction is aborted, commands ignored until end of transaction block")

func newFakeLineStore() *fakeLineStore {
	return &fakeLineStore{
		lines:  make(map[lineKey]*models.OrderProductDB),
		names:  make(map[int64]string),
		nextID: 1,
	}
}

func (f *fakeLineStore) fail(err error) error {
	f.aborted = true
	return err
}

func (f *fakeLineStore) GetByOrderAndProduct(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error) {
	if f.aborted {
		return nil, errTxAborted
	}
	if f.readErr != nil {
		return nil, f.fail(f.readErr)
	}
	line, ok := f.lines[lineKey{orderID, productID}]
	if !ok {
		return nil, nil
	}
	cp := *line
	return &cp, nil
}

func (f *fakeLineStore) ListByOrder(ctx context.Context, orderID int64) ([]models.OrderProductWithName, error) {
	if f.aborted {
		return nil, errTxAborted
	}
	if f.readErr != nil {
		return nil, f.fail(f.readErr)
	}
	result := []models.OrderProductWithName{}
	for key, line := range f.lines {
		if key.orderID != orderID {
			continue
		}
		result = append(result, models.OrderProductWithName{
			OrderProductDB: *line,
			ProductName:    f.names[key.productID],
		})
	}
	return result, nil
}

func (f *fakeLineStore) Upsert(ctx context.Context, orderID, productID int64, quantity int, unitPrice decimal.Decimal) (*models.OrderProductDB, error) {
	if f.aborted {
		return nil, errTxAborted
	}
	if f.upsertErr != nil {
		return nil, f.fail(f.upsertErr)
	}
	key := lineKey{orderID, productID}
	if line, ok := f.lines[key]; ok {
		line.Quantity += quantity
		line.Price = unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cp := *line
		return &cp, nil
	}
	line := &models.OrderProductDB{
		LineID:    f.nextID,
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
	f.nextID++
	f.lines[key] = line
	cp := *line
	return &cp, nil
}

func (f *fakeLineStore) Update(ctx context.Context, orderID, productID int64, quantity int, price decimal.Decimal) (*models.OrderProductDB, error) {
	if f.aborted {
		return nil, errTxAborted
	}
	if f.updateErr != nil {
		return nil, f.fail(f.updateErr)
	}
	line, ok := f.lines[lineKey{orderID, productID}]
	if !ok {
		return nil, nil
	}
	line.Quantity = quantity
	line.Price = price
	cp := *line
	return &cp, nil
}

func (f *fakeLineStore) Delete(ctx context.Context, orderID, productID int64) (*models.OrderProductDB, error) {
	if f.aborted {
		return nil, errTxAborted
	}
	key := lineKey{orderID, productID}
	line, ok := f.lines[key]
	if !ok {
		return nil, nil
	}
	delete(f.lines, key)
	return line, nil
}

type fakeKafkaWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error { return nil }

func newLineFixture() (*OrderLineService, *fakeOrderGetter, *fakeProductGetter, *fakeLineStore, *fakeKafkaWriter) {
	orders := &fakeOrderGetter{orders: map[int64]*models.OrderDB{
		5: {OrderID: 5, UserID: 1, Status: models.OrderStatusActive},
		6: {OrderID: 6, UserID: 1, Status: models.OrderStatusComplete},
	}}
	products := &fakeProductGetter{products: map[int64]*models.ProductDB{
		9: {ProductID: 9, Name: "Keyboard", Price: decimal.RequireFromString("10.00")},
	}}
	store := newFakeLineStore()
	store.names[9] = "Keyboard"
	writer := &fakeKafkaWriter{}
	svc := NewOrderLineService(orders, products, store, store, writer)
	return svc, orders, products, store, writer
}

func TestOrderLineService_AddLine(t *testing.T) {
	ctx := context.Background()

	t.Run("first add inserts a line with a snapshot price", func(t *testing.T) {
		svc, _, _, _, writer := newLineFixture()

		line, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, line.Quantity)
		assert.True(t, line.Price.Equal(decimal.RequireFromString("20.00")), "price = %s", line.Price)
		assert.Len(t, writer.messages, 1)
	})

	t.Run("repeated add merges quantities and recomputes the price", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)

		line, err := svc.AddLine(ctx, 5, 9, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, line.Quantity)
		assert.True(t, line.Price.Equal(decimal.RequireFromString("50.00")), "price = %s", line.Price)

		// Exactly one row for the pair.
		lines, err := store.ListByOrder(ctx, 5)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})

	t.Run("merge after a product price change uses the current unit price", func(t *testing.T) {
		svc, _, products, _, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)

		products.products[9].Price = decimal.RequireFromString("12.50")

		line, err := svc.AddLine(ctx, 5, 9, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, line.Quantity)
		assert.True(t, line.Price.Equal(decimal.RequireFromString("37.50")), "price = %s", line.Price)
	})

	t.Run("zero and negative quantities are rejected without mutation", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()

		for _, quantity := range []int{0, -3} {
			_, err := svc.AddLine(ctx, 5, 9, quantity)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		}
		assert.Empty(t, store.lines)
	})

	t.Run("unknown order fails without mutation", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 999, 9, 1)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Empty(t, store.lines)
	})

	t.Run("unknown product fails without mutation", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 777, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Empty(t, store.lines)
	})

	t.Run("order that is not active is rejected", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 6, 9, 1)
		assert.ErrorIs(t, err, ErrOrderNotActive)
		assert.Empty(t, store.lines)
	})

	t.Run("add over a concurrently written line merges in one statement", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()

		// Another request committed a line for the pair after our pre-checks.
		// The conflict arm of the upsert absorbs it; no statement fails, so
		// the surrounding transaction stays usable.
		_, err := store.Upsert(ctx, 5, 9, 4, decimal.RequireFromString("10.00"))
		require.NoError(t, err)

		line, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)
		assert.Equal(t, 6, line.Quantity)
		assert.True(t, line.Price.Equal(decimal.RequireFromString("60.00")), "price = %s", line.Price)
		assert.False(t, store.aborted)

		// The transaction is still live for follow-up statements.
		_, err = svc.GetLine(ctx, 5, 9)
		assert.NoError(t, err)
	})

	t.Run("store failure aborts the transaction and is passed through", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()
		store.upsertErr = errors.New("connection reset")

		_, err := svc.AddLine(ctx, 5, 9, 1)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidQuantity)

		// Later statements on the aborted transaction keep failing; the
		// service must not paper over that with a retry.
		_, err = svc.AddLine(ctx, 5, 9, 1)
		assert.ErrorIs(t, err, errTxAborted)
	})
}

func TestOrderLineService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("sets the quantity and recomputes the price", func(t *testing.T) {
		svc, _, _, _, writer := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)

		line, err := svc.UpdateQuantity(ctx, 5, 9, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, line.Quantity)
		assert.True(t, line.Price.Equal(decimal.RequireFromString("10.00")), "price = %s", line.Price)
		assert.Len(t, writer.messages, 2)
	})

	t.Run("zero and negative quantities are rejected leaving the line unchanged", func(t *testing.T) {
		svc, _, _, store, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)

		for _, quantity := range []int{0, -1} {
			_, err := svc.UpdateQuantity(ctx, 5, 9, quantity)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		}

		line, err := store.GetByOrderAndProduct(ctx, 5, 9)
		require.NoError(t, err)
		require.NotNil(t, line)
		assert.Equal(t, 2, line.Quantity)
		assert.True(t, line.Price.Equal(decimal.RequireFromString("20.00")))
	})

	t.Run("missing line fails with not found", func(t *testing.T) {
		svc, _, _, _, _ := newLineFixture()

		_, err := svc.UpdateQuantity(ctx, 5, 9, 3)
		assert.ErrorIs(t, err, ErrLineNotFound)
	})

	t.Run("unknown product fails", func(t *testing.T) {
		svc, _, _, _, _ := newLineFixture()

		_, err := svc.UpdateQuantity(ctx, 5, 777, 3)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestOrderLineService_GetLine(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the line when present", func(t *testing.T) {
		svc, _, _, _, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)

		line, err := svc.GetLine(ctx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(5), line.OrderID)
		assert.Equal(t, int64(9), line.ProductID)
	})

	t.Run("absence yields not found", func(t *testing.T) {
		svc, _, _, _, _ := newLineFixture()

		_, err := svc.GetLine(ctx, 5, 9)
		assert.ErrorIs(t, err, ErrLineNotFound)
	})
}

func TestOrderLineService_GetLinesForOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("joins product names", func(t *testing.T) {
		svc, _, _, _, _ := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)

		lines, err := svc.GetLinesForOrder(ctx, 5)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "Keyboard", lines[0].ProductName)
	})

	t.Run("order with no lines yields an empty slice", func(t *testing.T) {
		svc, _, _, _, _ := newLineFixture()

		lines, err := svc.GetLinesForOrder(ctx, 5)
		require.NoError(t, err)
		assert.NotNil(t, lines)
		assert.Empty(t, lines)
	})
}

func TestOrderLineService_RemoveLine(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the prior state and a second removal fails", func(t *testing.T) {
		svc, _, _, _, writer := newLineFixture()

		_, err := svc.AddLine(ctx, 5, 9, 2)
		require.NoError(t, err)

		removed, err := svc.RemoveLine(ctx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, 2, removed.Quantity)
		assert.True(t, removed.Price.Equal(decimal.RequireFromString("20.00")))

		_, err = svc.RemoveLine(ctx, 5, 9)
		assert.ErrorIs(t, err, ErrLineNotFound)

		assert.Len(t, writer.messages, 2)
	})
}

func TestOrderLineService_Scenario(t *testing.T) {
	// A full pass over one line: add, merge, shrink, remove.
	ctx := context.Background()
	svc, _, _, _, _ := newLineFixture()

	line, err := svc.AddLine(ctx, 5, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.Price.Equal(decimal.RequireFromString("20.00")))

	line, err = svc.AddLine(ctx, 5, 9, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.Price.Equal(decimal.RequireFromString("50.00")))

	line, err = svc.UpdateQuantity(ctx, 5, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	assert.True(t, line.Price.Equal(decimal.RequireFromString("10.00")))

	_, err = svc.RemoveLine(ctx, 5, 9)
	require.NoError(t, err)

	_, err = svc.GetLine(ctx, 5, 9)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestOrderLineService_NilKafkaWriter(t *testing.T) {
	ctx := context.Background()
	orders := &fakeOrderGetter{orders: map[int64]*models.OrderDB{
		5: {OrderID: 5, Status: models.OrderStatusActive},
	}}
	products := &fakeProductGetter{products: map[int64]*models.ProductDB{
		9: {ProductID: 9, Price: decimal.RequireFromString("10.00")},
	}}
	store := newFakeLineStore()
	svc := NewOrderLineService(orders, products, store, store, nil)

	line, err := svc.AddLine(ctx, 5, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
}
