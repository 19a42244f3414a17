package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name    string `json:"name" validate:"required,notblank,max=10"`
	Email   string `json:"email" validate:"omitempty,email"`
	Comment string `json:"comment,omitempty" validate:"max=5"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name        string
		input       sample
		wantMessage string
		wantDetails map[string]interface{}
	}{
		{"valid", sample{Name: "alice", Email: "a@example.com"}, "", nil},
		{"missing name", sample{}, "name is required", map[string]interface{}{"name": "required"}},
		{"blank name", sample{Name: "   "}, "name is required", map[string]interface{}{"name": "notblank"}},
		{"long name", sample{Name: strings.Repeat("x", 11)}, "name is too long", map[string]interface{}{"name": "max"}},
		{"bad email", sample{Name: "alice", Email: "nope"}, "email is invalid", map[string]interface{}{"email": "email"}},
		{"json name with options", sample{Name: "alice", Comment: "toolong"}, "comment is too long", map[string]interface{}{"comment": "max"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantMessage == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tt.wantMessage, Message(err))
			assert.Equal(t, tt.wantDetails, Details(err))
		})
	}
}

func TestMessage_NonValidationError(t *testing.T) {
	err := errors.New("other")
	assert.Equal(t, "Invalid request", Message(err))
	assert.Nil(t, Details(err))
}
