package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsSeparatorsAndUppercases(t *testing.T) {
	cases := map[string]string{
		"1234-5678":     "12345678",
		"12.345.678":    "12345678",
		" ab 123 cd ":   "AB123CD",
		"A1B2C3":        "A1B2C3",
		"":              "",
		"---":           "",
		"p/1234567 bol": "P1234567BOL",
	}

	for raw, want := range cases {
		assert.Equal(t, want, Normalize(raw), "raw=%q", raw)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"12345678", "A1B2C3", "1234-5678", "ab-12"}
	for _, raw := range inputs {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeExtension(t *testing.T) {
	assert.Nil(t, NormalizeExtension(nil))

	empty := "  "
	assert.Nil(t, NormalizeExtension(&empty))

	raw := " 1a "
	got := NormalizeExtension(&raw)
	if assert.NotNil(t, got) {
		assert.Equal(t, "1A", *got)
	}
}
