package command

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/core/service"
	"github.com/yndnr/storefront-go/internal/messaging"
	"github.com/yndnr/storefront-go/internal/server/httpserver"
	"github.com/yndnr/storefront-go/internal/server/httpserver/handler"
	"github.com/yndnr/storefront-go/internal/storage"
	"github.com/yndnr/storefront-go/internal/telemetry/metric"
)

// shop is a storefront server on a memory store.
type shop struct {
	*httptest.Server
	users    *service.UserService
	products *service.ProductService
	carts    *service.CartService
	orders   *service.OrderService
}

func newShop(t *testing.T) *shop {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	s := &shop{}
	s.users = service.NewUserService(store, bcrypt.MinCost)
	s.products = service.NewProductService(store, nil, log)
	s.carts = service.NewCartService(store, s.users, s.products)
	s.orders = service.NewOrderService(store, s.carts, s.products, messaging.Noop{}, log)

	reg := metric.NewRegistry()
	reg.MustRegister(metric.NewStoreCollector(store, storage.DriverMemory))

	h := httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics:     reg,
		Logger:      log,
		APIPrefix:   "/api",
		MetricsPath: "/metrics",
		BodyLimit:   1 << 20,
		Mounts: []httpserver.Mount{
			{Prefix: "/api/user", Name: "user", Group: handler.NewUserGroup(s.users)},
			{Prefix: "/api/product", Name: "product", Group: handler.NewProductGroup(s.products, 0)},
			{Prefix: "/api/cart", Name: "cart", Group: handler.NewCartGroup(s.carts)},
			{Prefix: "/api/order", Name: "order", Group: handler.NewOrderGroup(s.orders)},
		},
	})
	s.Server = httptest.NewServer(h)
	t.Cleanup(s.Close)
	return s
}

func (s *shop) seedUser(t *testing.T) *domain.User {
	t.Helper()
	u, err := s.users.Register(context.Background(), &service.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "correct horse",
	})
	require.NoError(t, err)
	return u
}

func (s *shop) seedProduct(t *testing.T, name, category string, price int64) *domain.Product {
	t.Helper()
	p, err := s.products.Add(context.Background(), &service.AddProductRequest{
		Name: name, Description: name, Price: price, Category: category,
		SubCategory: "Topwear", Sizes: []string{"S", "M"},
	})
	require.NoError(t, err)
	return p
}

// run executes the CLI against server with a private settings file.
func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()

	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard

	full := []string{"storefront-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml")}
	if server != "" {
		full = append(full, "--server", server)
	}
	err := app.Run(append(full, args...))
	return out.String(), err
}
