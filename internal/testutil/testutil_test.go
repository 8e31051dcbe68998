package testutil

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertHelpers_Passing(t *testing.T) {
	t.Parallel()

	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertNoError(t, nil)
	AssertError(t, errors.New("boom"))
}

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest(http.MethodGet, "/update?year=2010")
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/update", req.URL.Path)
	assert.Equal(t, "2010", req.URL.Query().Get("year"))
}

func TestNewTestRecorder(t *testing.T) {
	t.Parallel()

	rec := NewTestRecorder()
	assert.Equal(t, http.StatusOK, rec.Code)
	rec.WriteHeader(http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSampleFS(t *testing.T) {
	t.Parallel()

	fsys := SampleFS(t)

	csv, err := fsys.ReadFile(LossPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	assert.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "iso,"))

	geo, err := fsys.ReadFile(BoundaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(geo), `"SOV_A3": "ATA"`)
}
