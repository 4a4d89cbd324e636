package patients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Anita Sharma", "anita sharma"},
		{"title stripped", "Mrs. Anita Sharma", "anita sharma"},
		{"doctor title", "dr Arjun Reddy", "arjun reddy"},
		{"punctuation and spacing", "  Anita   K.  Sharma ", "anita k sharma"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, NameSimilarity("Anita Sharma", "anita sharma"))
	// Token order does not matter.
	assert.Equal(t, 1.0, NameSimilarity("Sharma Anita", "Anita Sharma"))
	// A one-letter typo stays above the fuzzy threshold.
	assert.Greater(t, NameSimilarity("Anita Sharme", "Anita Sharma"), DefaultFuzzyThreshold)
	// Different people score well below it.
	assert.Less(t, NameSimilarity("Anita Sharma", "Ravi Kumar"), DefaultFuzzyThreshold)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"already e164", "+919812345678", "+919812345678", false},
		{"separators", "+91 98123-45678", "+919812345678", false},
		{"bare national", "9812345678", "+919812345678", false},
		{"spaces and dashes", "98123 45678", "+919812345678", false},
		{"trunk zero", "09812345678", "+919812345678", false},
		{"double zero international", "00919812345678", "+919812345678", false},
		{"country code without plus", "919812345678", "+919812345678", false},
		{"parentheses", "(98123) 45678", "+919812345678", false},
		{"no digits", "call me", "", true},
		{"too short", "123", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in, "+91")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneIsIdempotent(t *testing.T) {
	inputs := []string{"98123 45678", "+91-98123-45678", "09812345678"}
	for _, in := range inputs {
		once, err := NormalizePhone(in, "+91")
		assert.NoError(t, err)
		twice, err := NormalizePhone(once, "+91")
		assert.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}
