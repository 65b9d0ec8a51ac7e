package validation

import (
	"errors"
	"strings"
	"testing"

	"talkhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Content string   `json:"content" validate:"notblank,max=10"`
	Links   []string `json:"links" validate:"max=2,dive,required,url"`
	Title   *string  `json:"title" validate:"omitnil,notblank"`
	Ref     string   `json:"ref" validate:"omitempty,uuid"`
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	return appErr.Fields
}

func TestStruct_Valid(t *testing.T) {
	title := "edited"
	assert.NoError(t, Struct(sample{
		Content: "hello",
		Links:   []string{"https://example.com/a.png"},
		Title:   &title,
		Ref:     "7d444840-9dc0-11d1-b245-5ffdce74fad2",
	}))
}

func TestStruct_CollectsEveryField(t *testing.T) {
	blank := " "
	err := Struct(sample{
		Content: "   ",
		Links:   []string{"", "not a url"},
		Title:   &blank,
		Ref:     "nope",
	})
	fields := fieldsOf(t, err)

	assert.Equal(t, []string{"This field is required."}, fields["content"])
	assert.Equal(t, []string{"This field is required."}, fields["links[0]"])
	assert.Equal(t, []string{"Enter a valid URL."}, fields["links[1]"])
	assert.Equal(t, []string{"This field is required."}, fields["title"])
	assert.Equal(t, []string{"Must be a valid UUID."}, fields["ref"])
}

func TestStruct_NilPointerSkipped(t *testing.T) {
	assert.NoError(t, Struct(sample{Content: "hello"}))
}

func TestStruct_MaxLength(t *testing.T) {
	fields := fieldsOf(t, Struct(sample{
		Content: strings.Repeat("x", 11),
		Links:   []string{"https://a.example", "https://b.example", "https://c.example"},
	}))
	assert.Equal(t, []string{"Ensure this field has no more than 10 characters."}, fields["content"])
	assert.Equal(t, []string{"Ensure this field has no more than 2 elements."}, fields["links"])
}
