package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileInput struct {
	Username string `json:"username" validate:"required,max=8"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Avatar   string `json:"avatar_url" validate:"omitempty,url"`
	Internal string `json:"-" validate:"omitempty,min=100"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	_, ok := v.Validate(profileInput{Username: "dj", Color: "#fff"})
	assert.True(t, ok)

	errs, ok := v.Validate(profileInput{Color: "red", Avatar: "not a url"})
	require.False(t, ok)
	require.Len(t, errs, 3)
	assert.Equal(t, ValidationError{Field: "username", Code: "REQUIRED", Message: "username is required"}, errs[0])
	assert.Equal(t, "color", errs[1].Field)
	assert.Equal(t, "HEXCOLOR", errs[1].Code)
	assert.Equal(t, "avatar_url must be a valid url", errs[2].Message)

	errs, ok = v.Validate(profileInput{Username: "much too long"})
	require.False(t, ok)
	assert.Equal(t, "username must not exceed 8 characters", errs[0].Error())
}
