package command

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/core/service"
)

func TestProductList_Table(t *testing.T) {
	s := newShop(t)
	s.seedProduct(t, "Shirt", "Men", 1250)
	s.seedProduct(t, "Dress", "Women", 4000)

	out, err := run(t, s.URL, "product", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "PRICE", "CATEGORY", "SIZES"}, strings.Fields(lines[0]))
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "40.00")
	assert.NotContains(t, out, "SUB_CATEGORY")
}

func TestProductList_FilterJSON(t *testing.T) {
	s := newShop(t)
	s.seedProduct(t, "Shirt", "Men", 1250)
	s.seedProduct(t, "Dress", "Women", 4000)

	out, err := run(t, s.URL, "-o", "json", "product", "list", "--category", "women")
	require.NoError(t, err)

	var products []domain.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Dress", products[0].Name)
	assert.Equal(t, int64(4000), products[0].Price)
}

func TestProductAddGetRemove(t *testing.T) {
	s := newShop(t)

	out, err := run(t, s.URL, "-o", "json", "product", "add",
		"--name", "Hoodie", "--price", "19.99", "--category", "Kids",
		"--size", "S,M", "--size", "L", "--image", "https://cdn.example.com/h.png", "--bestseller")
	require.NoError(t, err)

	var p domain.Product
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, int64(1999), p.Price)
	assert.Equal(t, []string{"S", "M", "L"}, p.Sizes)
	assert.True(t, p.Bestseller)

	out, err = run(t, s.URL, "--wide", "product", "get", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Hoodie")
	assert.Contains(t, out, "BESTSELLER")

	out, err = run(t, s.URL, "product", "remove", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "product "+p.ID+" removed\n", out)

	_, err = run(t, s.URL, "product", "get", p.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SF-PROD-4040")
}

func TestProductAdd_Validation(t *testing.T) {
	s := newShop(t)

	_, err := run(t, s.URL, "product", "add", "--name", "X", "--price", "abc", "--category", "Men")
	assert.ErrorContains(t, err, "invalid price")

	_, err = run(t, s.URL, "product", "add", "--name", "X", "--price", "1")
	assert.Error(t, err)
}

func TestOrderFlow(t *testing.T) {
	s := newShop(t)
	u := s.seedUser(t)
	p := s.seedProduct(t, "Shirt", "Men", 1000)

	ctx := context.Background()
	_, err := s.carts.Add(ctx, u.ID, p.ID, "M")
	require.NoError(t, err)

	out, err := run(t, s.URL, "cart", "show", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, p.ID)

	order, err := s.orders.Place(ctx, &service.PlaceOrderRequest{
		UserID:  u.ID,
		Address: map[string]string{"city": "Paris"},
	})
	require.NoError(t, err)

	out, err = run(t, s.URL, "order", "user", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, order.ID)
	assert.Contains(t, out, "10.00")
	assert.Contains(t, out, "Order Placed")

	out, err = run(t, s.URL, "order", "status", order.ID, "Shipped")
	require.NoError(t, err)
	assert.Contains(t, out, "Shipped")

	out, err = run(t, s.URL, "order", "list", "--status", "packing")
	require.NoError(t, err)
	assert.NotContains(t, out, order.ID)

	_, err = run(t, s.URL, "order", "status", order.ID, "Lost")
	assert.ErrorContains(t, err, "SF-ORDR-4001")
}

func TestUserGet(t *testing.T) {
	s := newShop(t)
	u := s.seedUser(t)

	out, err := run(t, s.URL, "-o", "yaml", "user", "get", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "email: ada@example.com")
	assert.NotContains(t, out, "password")

	_, err = run(t, s.URL, "user", "get")
	assert.ErrorContains(t, err, "usage:")
}

func TestStatus(t *testing.T) {
	s := newShop(t)
	s.seedProduct(t, "Shirt", "Men", 1000)

	_, err := run(t, s.URL, "product", "list")
	require.NoError(t, err)

	out, err := run(t, s.URL, "-o", "json", "status")
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Equal(t, "1", values["app_requests_total"])
	assert.Equal(t, "1", values[`app_store_documents{collection="products",driver="memory"}`])
}

func TestParseSamples(t *testing.T) {
	data := []byte("# HELP app_requests_total x\n# TYPE app_requests_total counter\napp_requests_total 7\napp_requests_totally 1\ngo_goroutines 9\n")
	assert.Equal(t, []metricSample{{Name: "app_requests_total", Value: "7"}},
		parseSamples(data, []string{"app_requests_total"}))
}

func TestConfigSetShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")

	app := App()
	var out strings.Builder
	app.Writer = &out
	require.NoError(t, app.Run([]string{"storefront-cli", "--config", path, "config", "set", "server", "http://shop:5000"}))
	assert.Equal(t, "server = http://shop:5000\n", out.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "server: http://shop:5000")

	out.Reset()
	app = App()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"storefront-cli", "--config", path, "config", "show"}))
	assert.Contains(t, out.String(), "http://shop:5000")

	app = App()
	app.Writer = &out
	assert.Error(t, app.Run([]string{"storefront-cli", "--config", path, "config", "set", "color", "on"}))
}

func TestSetup_RejectsUnknownOutput(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", "-o", "xml", "product", "list")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "0.05", formatPrice(5))
	assert.Equal(t, "12.50", formatPrice(1250))
	assert.Equal(t, "-1.00", formatPrice(-100))

	v, err := parsePrice("19.99")
	require.NoError(t, err)
	assert.Equal(t, int64(1999), v)
	_, err = parsePrice("-1")
	assert.Error(t, err)
}
