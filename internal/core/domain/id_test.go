package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id, err := NewID(ProductIDPrefix)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "prd_"))
	assert.Len(t, id, len("prd_")+26)
	assert.Equal(t, strings.ToLower(id), id)
	assert.True(t, ValidID(ProductIDPrefix, id))
	assert.False(t, ValidID(UserIDPrefix, id))
	assert.False(t, ValidID(ProductIDPrefix, "prd_not-a-ulid"))
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewID(OrderIDPrefix)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	_, err = NormalizeEmail("")
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = NormalizeEmail("not an email")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NormalizeEmail("Bob <bob@example.com>")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProduct_Validate(t *testing.T) {
	p := &Product{Name: "Shirt", Category: "Men", Price: 100}
	assert.NoError(t, p.Validate())

	p.Name = " "
	assert.ErrorIs(t, p.Validate(), ErrProductValidation)

	p = &Product{Name: "Shirt", Category: "Men", Price: -1}
	assert.ErrorIs(t, p.Validate(), ErrProductValidation)
}

func TestProduct_HasSize(t *testing.T) {
	p := &Product{Sizes: []string{"S", "M"}}
	assert.True(t, p.HasSize("M"))
	assert.False(t, p.HasSize("XL"))

	p.Sizes = nil
	assert.True(t, p.HasSize("anything"))
}
