package domain

import (
	"fmt"
	"strings"
)

// Client is an externally owned record with an arbitrary set of named fields.
type Client struct {
	ID     string         `json:"id" yaml:"id"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// String returns the named field formatted as a string, or "" when absent.
func (c *Client) String(name string) string {
	if c == nil || c.Fields == nil {
		return ""
	}
	v, ok := c.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

// FullName joins the first, middle and last name parts that are present.
func (c *Client) FullName() string {
	return joinPresent(" ", c.String("first_name"), c.String("middle_name"), c.String("last_name"))
}

// FullAddress joins the address lines with city, state, postal code and country.
func (c *Client) FullAddress() string {
	cityLine := joinPresent(" ", c.String("state"), c.String("postal_code"))
	return joinPresent(", ",
		c.String("address_line1"),
		c.String("address_line2"),
		c.String("city"),
		cityLine,
		c.String("country"),
	)
}

func joinPresent(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
