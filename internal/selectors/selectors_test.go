package selectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "My List", `"My List"`},
		{"double quotes", `say "hi"`, `'say "hi"'`},
		{"single quote", "it's", `"it's"`},
		{"both", `it's "x"`, `concat("it's ",'"',"x",'"')`},
		{"leading double", `"a'`, `concat('"',"a'")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestExactText(t *testing.T) {
	assert.Equal(t, `//*[normalize-space(text())="Gaming"]`, ExactText("Gaming"))
}

func TestLanguageOption(t *testing.T) {
	got := LanguageOption("English (UK)")
	assert.Contains(t, got, `"english (uk)"`)
	assert.Contains(t, got, "translate(text()")
}

func TestContainsTextFold(t *testing.T) {
	assert.Contains(t, ContainsTextFold("Upload   Thumbnail"), `"upload thumbnail"`)
}

func TestPrivacyRadio(t *testing.T) {
	assert.Equal(t, `#privacy-radios *[name="PUBLIC"]`, PrivacyRadio("PUBLIC"))
}
