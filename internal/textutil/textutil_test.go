package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a \n b\t\tc "))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, "hello", Normalize("hello"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "hello world", Fold(" Hello \n World ", true))
	assert.Equal(t, "Hello World", Fold(" Hello \n World ", false))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("2024"))
	assert.True(t, IsDigits("0"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("20a4"))
	assert.False(t, IsDigits("-5"))
}
