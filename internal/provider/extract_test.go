package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractValue(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		want   float64
		wantOK bool
	}{
		{"nil", nil, 0, false},
		{"float", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"numeric string", "3.25", 3.25, true},
		{"non-numeric string", "n/a", 0, false},
		{"nested total", map[string]interface{}{"total": 15.0, "goals": 12.0}, 15, true},
		{"nested count", map[string]interface{}{"count": 4.0}, 4, true},
		{"nested string total", map[string]interface{}{"total": "9"}, 9, true},
		{"nested without aggregate", map[string]interface{}{"goals": 12.0}, 0, false},
		{"unsupported type", []int{1, 2}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractValue(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
