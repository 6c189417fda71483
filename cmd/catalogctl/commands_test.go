package main

import (
	"testing"

	"catalog/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackage(t *testing.T) {
	pkg, err := parsePackage("Pro:450000.50:12")
	require.NoError(t, err)
	assert.Equal(t, "Pro", pkg.Name)
	assert.True(t, decimal.RequireFromString("450000.5").Equal(pkg.Price))
	assert.Equal(t, 12, pkg.DurationMonths)
	assert.Equal(t, model.PackageStatusActive, pkg.Status)

	pkg, err = parsePackage("Basic")
	require.NoError(t, err)
	assert.True(t, pkg.Price.IsZero())

	for _, bad := range []string{"", ":100", "Pro:abc", "Pro:-1", "Pro:1:x", "Pro:1:2:3"} {
		_, err := parsePackage(bad)
		assert.Error(t, err, bad)
	}
}
