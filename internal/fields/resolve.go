package fields

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

// System value keys.
const (
	KeyCurrentDate     = "current_date"
	KeyCurrentYear     = "current_year"
	KeyCurrentDateLong = "current_date_long"
	KeyFullName        = "full_name"
	KeyFullAddress     = "full_address"
	KeyClientID        = "client_id"
)

// Data is the flat data set of one template render. Lookups accept any
// spelling of a field name or a declared label.
type Data struct {
	values  map[string]string
	aliases map[string]string
}

// NewData returns an empty data set.
func NewData() *Data {
	return &Data{values: make(map[string]string), aliases: make(map[string]string)}
}

// Set stores value under the canonical form of name.
func (d *Data) Set(name, value string) {
	if k := Canonical(name); k != "" {
		d.values[k] = value
	}
}

// Lookup implements render.Values.
func (d *Data) Lookup(name string) (string, bool) {
	k := Canonical(name)
	if target, ok := d.aliases[k]; ok {
		k = target
	}
	v, ok := d.values[k]
	return v, ok
}

// Map returns a copy of the values keyed by canonical name.
func (d *Data) Map() map[string]string {
	return maps.Clone(d.values)
}

// Len returns the number of resolved values.
func (d *Data) Len() int {
	return len(d.values)
}

// Resolver builds render data from a client record, declared custom fields
// and task-level values.
type Resolver struct {
	clock clock.Clock
}

// NewResolver creates a Resolver. A nil clock selects the real clock.
func NewResolver(c clock.Clock) *Resolver {
	return &Resolver{clock: clock.OrReal(c)}
}

// Resolve builds the data set in layers, each overriding the previous:
// client attributes, system values, custom field defaults, then values.
// values are expected to be normalized already (see Index.Normalize).
func (r *Resolver) Resolve(client *domain.Client, declared []domain.CustomField, values map[string]string) *Data {
	d := NewData()

	if client != nil {
		for name, v := range client.Fields {
			d.Set(name, stringify(v))
		}
		d.Set(KeyClientID, client.ID)
		if full := client.FullName(); full != "" {
			d.Set(KeyFullName, full)
		}
		if addr := client.FullAddress(); addr != "" {
			d.Set(KeyFullAddress, addr)
		}
	}

	now := r.clock.Now()
	d.Set(KeyCurrentDate, now.Format(constants.DateLayout))
	d.Set(KeyCurrentYear, strconv.Itoa(now.Year()))
	d.Set(KeyCurrentDateLong, now.Format(constants.LongDateLayout))

	idx := NewIndex(declared)
	for alias, key := range idx {
		if alias != key.Canonical {
			d.aliases[alias] = key.Canonical
		}
	}
	for _, f := range declared {
		if f.Default != "" {
			d.Set(KeyOf(f).Canonical, f.Default)
		}
	}

	for k, v := range idx.Normalize(values) {
		d.Set(k, v)
	}

	return d
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
