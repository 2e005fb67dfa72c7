package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/media"
	"github.com/yndnr/storefront-go/internal/messaging"
	"github.com/yndnr/storefront-go/internal/storage"
)

var pngImage = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{7}, 64)...)

type fixture struct {
	store    *storage.MemoryStore
	media    *media.LocalStore
	events   *messaging.Memory
	users    *UserService
	products *ProductService
	carts    *CartService
	orders   *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	ms, err := media.NewLocalStore(t.TempDir(), "/media", 1<<16, nil)
	require.NoError(t, err)

	f := &fixture{store: store, media: ms, events: messaging.NewMemory()}
	f.users = NewUserService(store, bcrypt.MinCost)
	f.products = NewProductService(store, ms, nil)
	f.carts = NewCartService(store, f.users, f.products)
	f.orders = NewOrderService(store, f.carts, f.products, f.events, nil)
	return f
}

func (f *fixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), &RegisterRequest{
		Name: "Ada", Email: email, Password: "correct horse",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, name string, price int64, sizes ...string) *domain.Product {
	t.Helper()
	p, err := f.products.Add(context.Background(), &AddProductRequest{
		Name: name, Price: price, Category: "Men", Sizes: sizes,
	})
	require.NoError(t, err)
	return p
}

// ============================================================================
// UserService
// ============================================================================

func TestUserService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.register(t, "  Ada@Example.COM ")
	assert.True(t, domain.ValidID(domain.UserIDPrefix, u.ID))
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := f.users.Login(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.users.Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.users.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	loaded, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, loaded.Email)

	_, err = f.users.Get(ctx, "usr_missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
		want *domain.DomainError
	}{
		{"missing name", RegisterRequest{Email: "a@b.co", Password: "longenough"}, domain.ErrMissingArgument},
		{"missing email", RegisterRequest{Name: "A", Password: "longenough"}, domain.ErrMissingArgument},
		{"bad email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "longenough"}, domain.ErrInvalidArgument},
		{"short password", RegisterRequest{Name: "A", Email: "a@b.co", Password: "short"}, domain.ErrWeakPassword},
		{"long password", RegisterRequest{Name: "A", Email: "a@b.co", Password: strings.Repeat("x", 73)}, domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserService_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@example.com")

	_, err := f.users.Register(context.Background(), &RegisterRequest{
		Name: "Other", Email: "DUP@example.com", Password: "another password",
	})
	assert.ErrorIs(t, err, domain.ErrUserExists)
	assert.Equal(t, 409, domain.HTTPStatus(domain.CodeOf(err)))
}

func TestUserService_ConcurrentRegisterSameEmail(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.users.Register(context.Background(), &RegisterRequest{
				Name: "Racer", Email: "race@example.com", Password: "password123",
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

// ============================================================================
// ProductService
// ============================================================================

func TestProductService_AddWithMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.products.Add(ctx, &AddProductRequest{
		Name:      " Shirt ",
		Price:     1999,
		Category:  "Men",
		Sizes:     []string{"M", " L", "M", ""},
		ImageURLs: []string{"https://cdn.example.com/a.png"},
		Uploads:   []io.Reader{bytes.NewReader(pngImage)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Shirt", p.Name)
	assert.Equal(t, []string{"M", "L"}, p.Sizes)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", p.Images[0])
	assert.True(t, strings.HasPrefix(p.Images[1], "/media/"), p.Images[1])

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Images, got.Images)

	list, err := f.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.products.Remove(ctx, p.ID))
	_, err = f.products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, f.media.Delete(ctx, p.Images[1]), media.ErrNotFound, "uploaded image should be removed")

	assert.ErrorIs(t, f.products.Remove(ctx, p.ID), domain.ErrProductNotFound)
}

func TestProductService_AddRejectsBadUploads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.products.Add(ctx, &AddProductRequest{
		Name: "Doc", Price: 1, Category: "Misc",
		Uploads: []io.Reader{bytes.NewReader(pngImage), strings.NewReader("plain text, not an image")},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedMedia)

	entries, err := fs.ReadDir(f.media.FS(), ".")
	require.NoError(t, err)
	assert.Empty(t, entries, "saved images should be cleaned up")

	_, err = f.products.Add(ctx, &AddProductRequest{
		Name: "Huge", Price: 1, Category: "Misc",
		Uploads: []io.Reader{bytes.NewReader(append(append([]byte{}, pngImage...), make([]byte, 1<<17)...))},
	})
	assert.ErrorIs(t, err, domain.ErrPayloadTooLarge)

	list, err := f.products.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProductService_AddValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.products.Add(ctx, &AddProductRequest{Price: 10, Category: "Men"})
	assert.ErrorIs(t, err, domain.ErrProductValidation)

	_, err = f.products.Add(ctx, &AddProductRequest{Name: "X", Price: -1, Category: "Men"})
	assert.ErrorIs(t, err, domain.ErrProductValidation)

	_, err = f.products.Add(ctx, &AddProductRequest{
		Name: "X", Category: "Men",
		ImageURLs: []string{"a", "b", "c", "d", "e"},
	})
	assert.ErrorIs(t, err, domain.ErrProductValidation)

	noMedia := NewProductService(f.store, nil, nil)
	_, err = noMedia.Add(ctx, &AddProductRequest{
		Name: "X", Category: "Men", Uploads: []io.Reader{bytes.NewReader(pngImage)},
	})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

// ============================================================================
// CartService
// ============================================================================

func TestCartService_AddAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "cart@example.com")
	p := f.product(t, "Tee", 500, "S", "M")

	cart, err := f.carts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, cart.Empty())

	_, err = f.carts.Add(ctx, u.ID, p.ID, "M")
	require.NoError(t, err)
	cart, err = f.carts.Add(ctx, u.ID, p.ID, "M")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[p.ID]["M"])

	cart, err = f.carts.Update(ctx, u.ID, p.ID, "S", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Count())

	cart, err = f.carts.Update(ctx, u.ID, p.ID, "M", 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]int{p.ID: {"S": 3}}, cart.Items)

	stored, err := f.carts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.Items, stored.Items)
}

func TestCartService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "carterr@example.com")
	p := f.product(t, "Tee", 500, "S")

	_, err := f.carts.Get(ctx, "usr_nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.carts.Add(ctx, "", p.ID, "S")
	assert.ErrorIs(t, err, domain.ErrMissingArgument)

	_, err = f.carts.Add(ctx, u.ID, "prd_missing", "S")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.carts.Add(ctx, u.ID, p.ID, "XL")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.carts.Add(ctx, u.ID, p.ID, "")
	assert.ErrorIs(t, err, domain.ErrMissingArgument)

	_, err = f.carts.Update(ctx, u.ID, p.ID, "S", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCartService_ConcurrentAdds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "busy@example.com")
	p := f.product(t, "Cap", 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.carts.Add(ctx, u.ID, p.ID, "One")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := f.carts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, cart.Items[p.ID]["One"])
}

// ============================================================================
// OrderService
// ============================================================================

func TestOrderService_PlaceClearsCartAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "buyer@example.com")
	shirt := f.product(t, "Shirt", 1500, "M")
	hat := f.product(t, "Cap", 300)

	_, err := f.carts.Update(ctx, u.ID, shirt.ID, "M", 2)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, u.ID, hat.ID, "One")
	require.NoError(t, err)

	order, err := f.orders.Place(ctx, &PlaceOrderRequest{
		UserID:  u.ID,
		Address: map[string]string{"street": "1 Main St"},
	})
	require.NoError(t, err)

	assert.True(t, domain.ValidID(domain.OrderIDPrefix, order.ID))
	assert.Equal(t, int64(2*1500+300), order.Amount)
	assert.Equal(t, domain.OrderPlaced, order.Status)
	assert.Equal(t, domain.PaymentCOD, order.PaymentMethod)
	assert.False(t, order.Paid)
	assert.Len(t, order.Items, 2)

	cart, err := f.carts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, cart.Empty())

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, messaging.EventOrderPlaced, events[0].Type)
	assert.Equal(t, order.ID, events[0].OrderID)
	assert.Equal(t, order.Amount, events[0].Amount)

	mine, err := f.orders.UserOrders(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)

	_, err = f.orders.Place(ctx, &PlaceOrderRequest{UserID: u.ID, Address: map[string]string{"a": "b"}})
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestOrderService_PlaceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "v@example.com")

	_, err := f.orders.Place(ctx, &PlaceOrderRequest{UserID: u.ID, Address: map[string]string{"a": "b"}, PaymentMethod: "Cash"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.orders.Place(ctx, &PlaceOrderRequest{UserID: u.ID})
	assert.ErrorIs(t, err, domain.ErrMissingArgument)

	_, err = f.orders.Place(ctx, &PlaceOrderRequest{UserID: "usr_ghost", Address: map[string]string{"a": "b"}})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestOrderService_PlaceSkipsRemovedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "skip@example.com")
	gone := f.product(t, "Gone", 100)

	_, err := f.carts.Add(ctx, u.ID, gone.ID, "One")
	require.NoError(t, err)
	require.NoError(t, f.products.Remove(ctx, gone.ID))

	_, err = f.orders.Place(ctx, &PlaceOrderRequest{UserID: u.ID, Address: map[string]string{"a": "b"}})
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "status@example.com")
	p := f.product(t, "Sock", 50)
	_, err := f.carts.Add(ctx, u.ID, p.ID, "One")
	require.NoError(t, err)
	order, err := f.orders.Place(ctx, &PlaceOrderRequest{UserID: u.ID, Address: map[string]string{"a": "b"}, PaymentMethod: domain.PaymentStripe})
	require.NoError(t, err)

	updated, err := f.orders.UpdateStatus(ctx, order.ID, domain.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, updated.Status)

	all, err := f.orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.OrderShipped, all[0].Status)

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, messaging.EventOrderStatusChanged, events[1].Type)
	assert.Equal(t, string(domain.OrderShipped), events[1].Status)

	_, err = f.orders.UpdateStatus(ctx, order.ID, "Lost")
	assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)

	_, err = f.orders.UpdateStatus(ctx, "ord_missing", domain.OrderPacking)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderService_PublishFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.events.FailWith(errors.New("broker down"))

	u := f.register(t, "pubfail@example.com")
	p := f.product(t, "Belt", 900)
	_, err := f.carts.Add(ctx, u.ID, p.ID, "One")
	require.NoError(t, err)

	order, err := f.orders.Place(ctx, &PlaceOrderRequest{UserID: u.ID, Address: map[string]string{"a": "b"}})
	require.NoError(t, err)

	all, err := f.orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, order.ID, all[0].ID)
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock("usr_shared")
			defer unlock()
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, k.locks.Count())

	unlock := k.lock("usr_twice")
	unlock()
	unlock()
	assert.Zero(t, k.locks.Count())
}

func TestOrderService_UnknownIDsDoNotRetainLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		id := "ord_missing" + strings.Repeat("x", i%7) + string(rune('a'+i%26))
		_, err := f.orders.UpdateStatus(ctx, id, domain.OrderShipped)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
		_, err = f.carts.Add(ctx, "usr_missing"+string(rune('a'+i%26)), "prd_x", "M")
		assert.Error(t, err)
	}
	assert.Zero(t, f.carts.locks.locks.Count())
}
