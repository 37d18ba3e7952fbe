package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htm-project/temporal-api/internal/domain/htm"
)

func TestValidateTemporalMemoryConfig(t *testing.T) {
	v := New()

	t.Run("valid_default", func(t *testing.T) {
		assert.Nil(t, v.Validate(htm.DefaultTemporalMemoryConfig()))
	})

	t.Run("invalid_fields_reported_by_json_name", func(t *testing.T) {
		cfg := htm.DefaultTemporalMemoryConfig()
		cfg.CellsPerColumn = 0
		cfg.InitialPermanence = 2.0

		errs := v.Validate(cfg)
		require.NotNil(t, errs)
		require.Len(t, errs, 2)

		fields := []string{errs[0].Field, errs[1].Field}
		assert.Contains(t, fields, "cells_per_column")
		assert.Contains(t, fields, "initial_permanence")
		assert.NotEmpty(t, errs.Error())
	})

	t.Run("empty_dimensions", func(t *testing.T) {
		cfg := htm.DefaultTemporalMemoryConfig()
		cfg.ColumnDimensions = nil

		errs := v.Validate(cfg)
		require.NotNil(t, errs)
		assert.Equal(t, "column_dimensions", errs[0].Field)
	})
}

func TestCustomRules(t *testing.T) {
	v := New()

	type withUUID struct {
		ID string `json:"id" validate:"uuid"`
	}
	type withSorted struct {
		Columns []int `json:"columns" validate:"sorted_unique"`
	}

	assert.Nil(t, v.Validate(&withUUID{ID: "f47ac10b-58cc-4372-a567-0e02b2c3d479"}))
	assert.NotNil(t, v.Validate(&withUUID{ID: "not-a-uuid"}))
	assert.NotNil(t, v.Validate(&withUUID{}))

	assert.Nil(t, v.Validate(&withSorted{Columns: []int{1, 2, 9}}))
	assert.Nil(t, v.Validate(&withSorted{}))
	assert.NotNil(t, v.Validate(&withSorted{Columns: []int{2, 1}}))
	assert.NotNil(t, v.Validate(&withSorted{Columns: []int{1, 1}}))
}
