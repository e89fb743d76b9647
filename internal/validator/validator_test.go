package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string `param:"submission_id" json:"id"    validate:"required,uuid"`
	Limit int    `query:"limit"                      validate:"lte=500"`
	Notes string `json:"notes_md"                    validate:"omitempty,notblank"`
	Title string `yaml:"title"                       validate:"required"`
}

func TestFieldNamesUseWireTags(t *testing.T) {
	v := Create()

	err := v.Validate(&sample{ID: "nope", Limit: 501, Notes: "   "})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, map[string]string{
		"submission_id": "uuid",
		"limit":         "lte",
		"notes_md":      "notblank",
		"title":         "required",
	}, fields)
}

func TestVar(t *testing.T) {
	v := Create()
	require.NoError(t, v.Var("0197b1c4-0000-7000-8000-000000000001", "uuid"))
	require.Error(t, v.Var("x", "uuid"))
}
