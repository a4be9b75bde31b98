package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIntervalMinutesRejectsBelowOne(t *testing.T) {
	assert.Error(t, validateIntervalMinutes(0))
	assert.Error(t, validateIntervalMinutes(-1))
}

func TestValidateIntervalMinutesAcceptsOneAndAbove(t *testing.T) {
	assert.NoError(t, validateIntervalMinutes(1))
	assert.NoError(t, validateIntervalMinutes(60))
}
