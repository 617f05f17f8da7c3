package validation

import (
	"errors"
	"testing"

	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_VendorForm(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Struct(partner.VendorInput{Name: "Acme", Email: "ap@acme.test"}))
	})

	t.Run("email optional", func(t *testing.T) {
		assert.NoError(t, v.Struct(partner.VendorInput{Name: "Acme"}))
	})

	t.Run("missing name and bad email", func(t *testing.T) {
		err := v.Struct(partner.VendorInput{Email: "not-an-email"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields, 2)
		assert.Equal(t, "name", verr.Fields[0].Field)
		assert.Equal(t, "is required", verr.Fields[0].Message)
		assert.Equal(t, "email", verr.Fields[1].Field)
	})
}

func TestValidator_Decimal(t *testing.T) {
	type line struct {
		Cost decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	}
	v := New()
	assert.NoError(t, v.Struct(line{Cost: decimal.RequireFromString("0")}))

	err := v.Struct(line{Cost: decimal.RequireFromString("-0.01")})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "unit_cost", verr.Fields[0].Field)
}

func TestValidator_NestedPath(t *testing.T) {
	type child struct {
		ID string `json:"id" validate:"required"`
	}
	type parent struct {
		Children []child `json:"children" validate:"dive"`
	}

	err := New().Struct(parent{Children: []child{{ID: "a"}, {}}})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "children[1].id", verr.Fields[0].Field)
}

func TestSlice(t *testing.T) {
	v := New()
	vendors := []partner.Vendor{{ID: "1", Name: "A"}, {ID: "2"}}
	assert.Error(t, Slice(v, vendors))
	assert.NoError(t, Slice(v, vendors[:1]))
}
