package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	number := FormatDocumentNumber("SO", at)

	assert.Regexp(t, `^SO-20260314-[0-9A-F]{8}$`, number)
	assert.NotEqual(t, number, FormatDocumentNumber("SO", at))
}

func TestNextDocumentNumberRetriesOnCollision(t *testing.T) {
	calls := 0
	number, err := NextDocumentNumber("TR", func(string) (bool, error) {
		calls++
		return calls < 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Regexp(t, `^TR-\d{8}-[0-9A-F]{8}$`, number)
}

func TestNextDocumentNumberGivesUp(t *testing.T) {
	_, err := NextDocumentNumber("SO", func(string) (bool, error) {
		return true, nil
	})
	require.Error(t, err)
}

func TestNextDocumentNumberPropagatesLookupError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NextDocumentNumber("SO", func(string) (bool, error) {
		return false, boom
	})
	require.ErrorIs(t, err, boom)
}
