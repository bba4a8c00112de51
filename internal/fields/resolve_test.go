package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

var fixedNow = clock.Fixed(time.Date(2025, 3, 7, 9, 30, 0, 0, time.UTC)) //nolint:gochecknoglobals // test fixture

func TestResolver_Resolve_Layers(t *testing.T) {
	client := &domain.Client{
		ID: "c-1",
		Fields: map[string]any{
			"first_name":    "Ada",
			"last_name":     "Lovelace",
			"Email Address": "ada@example.com",
			"city":          "London",
			"country":       "UK",
			"shares":        float64(1500),
			"notes":         "from client",
		},
	}
	declared := []domain.CustomField{
		{Name: "fee", Label: "Fee Amount", Default: "250"},
		{Name: "jurisdiction", Default: "England"},
	}
	values := map[string]string{
		"Fee Amount": "300",
		"notes":      "from task",
	}

	d := NewResolver(fixedNow).Resolve(client, declared, values)

	tests := map[string]string{
		"first_name":        "Ada",
		"full_name":         "Ada Lovelace",
		"full_address":      "London, UK",
		"email_address":     "ada@example.com",
		"Email Address":     "ada@example.com",
		"shares":            "1500",
		"client_id":         "c-1",
		"current_date":      "2025-03-07",
		"current_year":      "2025",
		"current_date_long": "7 March 2025",
		"fee":               "300",
		"Fee Amount":        "300",
		"jurisdiction":      "England",
		"notes":             "from task",
	}
	for name, want := range tests {
		got, ok := d.Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := d.Lookup("middle_name")
	assert.False(t, ok)
}

func TestResolver_Resolve_NilClient(t *testing.T) {
	d := NewResolver(fixedNow).Resolve(nil, nil, nil)
	v, ok := d.Lookup("current_year")
	assert.True(t, ok)
	assert.Equal(t, "2025", v)
	assert.Equal(t, 3, d.Len())
}

func TestData_MapIsCopy(t *testing.T) {
	d := NewData()
	d.Set("A Key", "1")
	m := d.Map()
	m["a_key"] = "2"
	v, _ := d.Lookup("a_key")
	assert.Equal(t, "1", v)
}
