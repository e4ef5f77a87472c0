package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestA1SheetName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"By Day", "'By Day'"},
		{"Top Horse Racing Tracks", "'Top Horse Racing Tracks'"},
		{"Punchestown's Feature Daily", "'Punchestown''s Feature Daily'"},
		{"'quoted'", "'''quoted'''"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a1SheetName(tt.name))
	}
}
