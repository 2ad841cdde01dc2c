// File: pkg/schemas/jobs_test.go
package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGameData(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want GameData
	}{
		{"json candidate", `{"title":"Hollow Knight","year":"2017","id":"/m/0123"}`, GameData{Title: "Hollow Knight", Year: "2017", ID: "/m/0123"}},
		{"title only", `{"title":"Celeste"}`, GameData{Title: "Celeste"}},
		{"bare text", "  Celeste  ", GameData{Title: "Celeste"}},
		{"broken json", `{"title":"Cel`, GameData{Title: `{"title":"Cel`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGameData(tt.raw))
		})
	}
}
