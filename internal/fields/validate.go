package fields

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`) //nolint:gochecknoglobals // immutable after init

// dateLayouts are the accepted spellings of a date value.
var dateLayouts = []string{ //nolint:gochecknoglobals // read-only lookup table
	constants.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	constants.LongDateLayout,
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// Validate checks every declared field against data and returns a
// *errors.ValidationError listing all issues, or nil.
//
// A required field fails when its value is absent or blank after trimming.
// Type checks run whenever a value is present, whether or not the field is
// required.
func Validate(declared []domain.CustomField, data *Data) error {
	var issues []docerrors.Issue
	for _, f := range declared {
		key := KeyOf(f)
		if key.Canonical == "" {
			continue
		}
		value, _ := data.Lookup(key.Canonical)
		value = strings.TrimSpace(value)

		if value == "" {
			if f.Required {
				issues = append(issues, docerrors.Issue{
					Field:   key.Canonical,
					Code:    docerrors.IssueRequired,
					Message: fmt.Sprintf("%s is required", f.DisplayName()),
				})
			}
			continue
		}

		if msg := checkType(f, value); msg != "" {
			issues = append(issues, docerrors.Issue{
				Field:   key.Canonical,
				Code:    docerrors.IssueInvalidType,
				Message: fmt.Sprintf("%s %s", f.DisplayName(), msg),
			})
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &docerrors.ValidationError{Issues: issues}
}

// checkType returns a description of the type problem, or "".
func checkType(f domain.CustomField, value string) string {
	switch f.Type {
	case constants.FieldTypeEmail:
		if !emailPattern.MatchString(value) {
			return "is not a valid email address"
		}
	case constants.FieldTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "is not a valid number"
		}
	case constants.FieldTypeDate:
		if !isDate(value) {
			return "is not a valid date"
		}
	case constants.FieldTypeSelect:
		if len(f.Options) > 0 && !slices.Contains(f.Options, value) {
			return fmt.Sprintf("must be one of %s", strings.Join(f.Options, ", "))
		}
	case constants.FieldTypeText:
	}
	return ""
}

func isDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
