package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

func dataOf(kv map[string]string) *Data {
	d := NewData()
	for k, v := range kv {
		d.Set(k, v)
	}
	return d
}

func TestValidate_RequiredBlankEqualsAbsent(t *testing.T) {
	declared := []domain.CustomField{{Name: "company", Required: true}}

	for name, data := range map[string]*Data{
		"absent":     dataOf(nil),
		"empty":      dataOf(map[string]string{"company": ""}),
		"whitespace": dataOf(map[string]string{"company": " \t\n "}),
	} {
		t.Run(name, func(t *testing.T) {
			err := Validate(declared, data)
			var verr *docerrors.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Issues, 1)
			assert.Equal(t, docerrors.IssueRequired, verr.Issues[0].Code)
			assert.Equal(t, "company", verr.Issues[0].Field)
		})
	}
}

func TestValidate_EmailTypeIndependentOfRequired(t *testing.T) {
	for _, required := range []bool{true, false} {
		declared := []domain.CustomField{{Name: "email", Type: constants.FieldTypeEmail, Required: required}}
		err := Validate(declared, dataOf(map[string]string{"email": "not-an-email"}))

		var verr *docerrors.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Issues, 1)
		assert.Equal(t, docerrors.IssueInvalidType, verr.Issues[0].Code)
		assert.Equal(t, "email", verr.Issues[0].Field)
	}
}

func TestValidate_Types(t *testing.T) {
	tests := []struct {
		name  string
		field domain.CustomField
		value string
		ok    bool
	}{
		{"valid email", domain.CustomField{Name: "f", Type: constants.FieldTypeEmail}, "a@b.co", true},
		{"number", domain.CustomField{Name: "f", Type: constants.FieldTypeNumber}, "12.5", true},
		{"bad number", domain.CustomField{Name: "f", Type: constants.FieldTypeNumber}, "twelve", false},
		{"iso date", domain.CustomField{Name: "f", Type: constants.FieldTypeDate}, "2025-02-28", true},
		{"long date", domain.CustomField{Name: "f", Type: constants.FieldTypeDate}, "28 February 2025", true},
		{"us date", domain.CustomField{Name: "f", Type: constants.FieldTypeDate}, "02/28/2025", true},
		{"bad date", domain.CustomField{Name: "f", Type: constants.FieldTypeDate}, "2025-02-30", false},
		{"select ok", domain.CustomField{Name: "f", Type: constants.FieldTypeSelect, Options: []string{"LLC", "Corp"}}, "LLC", true},
		{"select bad", domain.CustomField{Name: "f", Type: constants.FieldTypeSelect, Options: []string{"LLC", "Corp"}}, "LLP", false},
		{"unknown type is text", domain.CustomField{Name: "f", Type: "phone"}, "anything", true},
		{"absent optional skips type check", domain.CustomField{Name: "f", Type: constants.FieldTypeNumber}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]domain.CustomField{tt.field}, dataOf(map[string]string{"f": tt.value}))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, docerrors.ErrValidation)
			}
		})
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	declared := []domain.CustomField{
		{Name: "company", Label: "Company Name", Required: true},
		{Name: "email", Type: constants.FieldTypeEmail},
		{Name: "fee", Type: constants.FieldTypeNumber, Required: true},
	}
	err := Validate(declared, dataOf(map[string]string{"email": "nope", "fee": "abc"}))

	var verr *docerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 3)
	assert.Equal(t, "Company Name is required", verr.Issues[0].Message)
	assert.Equal(t, "email", verr.Issues[1].Field)
	assert.Equal(t, "fee", verr.Issues[2].Field)
}
