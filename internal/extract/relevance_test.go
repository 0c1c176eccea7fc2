package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelevantRequiresHalfTheWords(t *testing.T) {
	// Four significant words, so two must match
	term := "Fender Stratocaster electric guitar"

	assert.True(t, Relevant(term, "Fender Stratocaster 2015 sunburst"))
	assert.True(t, Relevant(term, "Used electric guitar, plays great"))
	assert.False(t, Relevant(term, "Yamaha acoustic guitar"))
	assert.False(t, Relevant(term, "Dining table and chairs"))
}

func TestRelevantIgnoresShortWords(t *testing.T) {
	// "Si" is two characters and does not count; only honda and civic do
	term := "Honda Civic Si"

	assert.True(t, Relevant(term, "2019 Honda Accord"))
	assert.True(t, Relevant(term, "civic hatchback, clean title"))
	assert.False(t, Relevant(term, "Toyota Corolla LE"))
}

func TestRelevantCaseInsensitive(t *testing.T) {
	assert.True(t, Relevant("honda civic", "HONDA CIVIC EX-L"))
	assert.True(t, Relevant("HONDA CIVIC", "honda civic ex-l"))
}

func TestRelevantNoSignificantWords(t *testing.T) {
	// A term with no words longer than two characters cannot gate anything
	assert.True(t, Relevant("a b", "anything at all"))
	assert.True(t, Relevant("", "anything at all"))
}

func TestSignificantWords(t *testing.T) {
	assert.Equal(t, []string{"honda", "civic"}, significantWords("Honda Civic Si"))
	assert.Empty(t, significantWords("a bc"))
}
