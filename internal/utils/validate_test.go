package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Phone    string `validate:"omitempty,phone"`
	Course   string `validate:"omitempty,course"`
	Role     string `validate:"omitempty,role"`
	Password string `validate:"omitempty,password"`
}

func TestNewValidator_CustomTags(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    sample
		valid bool
	}{
		{"empty is allowed by omitempty", sample{}, true},
		{"valid phone", sample{Phone: "+919876543210"}, true},
		{"phone without plus", sample{Phone: "919876543210"}, false},
		{"phone too short", sample{Phone: "+12345"}, false},
		{"phone too long", sample{Phone: "+1234567890123456"}, false},
		{"known course", sample{Course: "MCA"}, true},
		{"course is case sensitive", sample{Course: "btech"}, false},
		{"unknown course", sample{Course: "PhD"}, false},
		{"faculty role", sample{Role: "faculty"}, true},
		{"unknown role", sample{Role: "root"}, false},
		{"strong password", sample{Password: "Passw0rd"}, true},
		{"weak password", sample{Password: "password"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
