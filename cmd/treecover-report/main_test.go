package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/treecover.report/internal/dataset"
)

func TestPickYear(t *testing.T) {
	ha := 1.0
	ds, err := dataset.New(nil, []dataset.LossRecord{
		{ISO: "BRA", Year: 2011, HectaresLost: &ha},
		{ISO: "BRA", Year: 2003, HectaresLost: &ha},
	})
	require.NoError(t, err)

	y, err := pickYear(ds, 0)
	require.NoError(t, err)
	assert.Equal(t, 2011, y)

	y, err = pickYear(ds, 2003)
	require.NoError(t, err)
	assert.Equal(t, 2003, y)

	_, err = pickYear(ds, 1990)
	assert.ErrorContains(t, err, "2003-2011")

	empty, err := dataset.New(nil, nil)
	require.NoError(t, err)
	_, err = pickYear(empty, 0)
	assert.Error(t, err)
}
