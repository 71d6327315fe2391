package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/validation"
)

func validProfile() models.ProfileInput {
	return models.ProfileInput{
		Name:               "Airport runs",
		MinFare:            12,
		MaxPickupDistance:  4,
		MaxDrivingDistance: 30,
	}
}

func byField(errs []models.FieldError) map[string]models.FieldError {
	m := make(map[string]models.FieldError, len(errs))
	for _, fe := range errs {
		m[fe.Field] = fe
	}
	return m
}

func TestStruct_Valid(t *testing.T) {
	input := validProfile()
	assert.Nil(t, validation.Struct(&input))
}

func TestStruct_ProfileErrors(t *testing.T) {
	input := validProfile()
	input.Name = ""
	input.MinFare = -1
	input.MaxPickupDistance = 101

	errs := byField(validation.Struct(&input))
	require.Len(t, errs, 3)

	assert.Equal(t, models.FieldError{Field: "name", Message: "is required", Code: "required"}, errs["name"])
	assert.Equal(t, models.FieldError{Field: "minFare", Message: "must be at least 0", Code: "gte"}, errs["minFare"])
	assert.Equal(t, models.FieldError{Field: "maxPickupDistance", Message: "must be at most 100", Code: "lte"}, errs["maxPickupDistance"])
}

func TestStruct_StringLengthMessage(t *testing.T) {
	input := validProfile()
	input.Name = strings.Repeat("x", 61)

	errs := validation.Struct(&input)
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "must be at most 60 characters", errs[0].Message)
}

func TestStruct_OptionalPointerFields(t *testing.T) {
	assert.Nil(t, validation.Struct(&models.SettingsInput{}), "absent fields are not validated")

	tooHigh := 5.5
	errs := validation.Struct(&models.SettingsInput{MinRating: &tooHigh})
	require.Len(t, errs, 1)
	assert.Equal(t, "minRating", errs[0].Field)
	assert.Equal(t, "lte", errs[0].Code)
}

func TestStruct_NonStruct(t *testing.T) {
	errs := validation.Struct("not a struct")
	require.Len(t, errs, 1)
	assert.Empty(t, errs[0].Field)
	assert.NotEmpty(t, errs[0].Message)
}
