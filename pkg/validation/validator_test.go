package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,pwd"`
	Email    string `json:"email" validate:"omitempty,email"`
	Bio      string `json:"bio" validate:"max=10"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetails_FieldMessages(t *testing.T) {
	v := newValidator()
	err := v.Struct(registerRequest{
		Username: "has space",
		Password: strings.Repeat("p", 73),
		Email:    "nope",
		Bio:      "far too long a bio",
	})

	got := ToDetails(err)
	assert.Equal(t, "must be 1-64 letters, digits, '.', '_' or '-'", got["username"])
	assert.Equal(t, "must be at most 72 characters", got["password"])
	assert.Equal(t, "must be a valid email address", got["email"])
	assert.Equal(t, "must be at most 10 characters", got["bio"])
}

func TestToDetails_Valid(t *testing.T) {
	v := newValidator()
	assert.Nil(t, ToDetails(v.Struct(registerRequest{Username: "alice.b", Password: "pw"})))
}

func TestToDetails_Required(t *testing.T) {
	got := ToDetails(newValidator().Struct(registerRequest{}))
	assert.Equal(t, "is required", got["username"])
	assert.Equal(t, "is required", got["password"])
}

func TestToDetails_BadJSON(t *testing.T) {
	var dst map[string]any
	err := json.Unmarshal([]byte("{"), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
}
