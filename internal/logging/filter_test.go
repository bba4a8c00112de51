package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fake secrets are assembled at runtime to avoid secret-scanner false positives.
func fakePassword() string { return "testonly" + "pass123" }
func fakeToken() string    { return "TESTONLYtoken" + "abcdefghijkl" }

func TestFilterSensitiveValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "postgres dsn",
			input:    "connecting to postgres://docflow:" + fakePassword() + "@db:5432/docflow",
			expected: "connecting to postgres://docflow:[REDACTED]@db:5432/docflow",
		},
		{
			name:     "redis url with empty user",
			input:    "redis://:" + fakePassword() + "@cache:6379/0",
			expected: "redis://:[REDACTED]@cache:6379/0",
		},
		{
			name:     "nats token",
			input:    "nats://" + fakeToken() + "@nats:4222",
			expected: "nats://[REDACTED]@nats:4222",
		},
		{
			name:     "keyword dsn",
			input:    "host=db user=docflow password=" + fakePassword() + " dbname=docflow",
			expected: "host=db user=docflow password=[REDACTED] dbname=docflow",
		},
		{
			name:     "bearer",
			input:    "Authorization: Bearer " + fakeToken(),
			expected: "Authorization: Bearer [REDACTED]",
		},
		{
			name:     "plain url untouched",
			input:    "https://files.example.com/clients/c1",
			expected: "https://files.example.com/clients/c1",
		},
		{
			name:     "ordinary message",
			input:    "generated 2 documents for task 42",
			expected: "generated 2 documents for task 42",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, FilterSensitiveValue(tc.input))
			assert.Equal(t, tc.input != tc.expected, ContainsSensitiveData(tc.input))
		})
	}
}

func TestIsSensitiveFieldName(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSensitiveFieldName("POSTGRES_DSN"))
	assert.True(t, IsSensitiveFieldName("db_password"))
	assert.True(t, IsSensitiveFieldName("Authorization"))
	assert.False(t, IsSensitiveFieldName("client_id"))
	assert.False(t, IsSensitiveFieldName("template_name"))
}

func TestSafeValue(t *testing.T) {
	t.Parallel()

	dsn := "postgres://docflow:" + fakePassword() + "@db/docflow"
	assert.Equal(t, "postgres://docflow:[REDACTED]@db/docflow", SafeValue("storage.postgres_dsn", dsn))
	assert.Equal(t, RedactedValue, SafeValue("api_key", "whatever"))
	assert.Equal(t, "localhost:6379", SafeValue("redis_addr", "localhost:6379"))
	assert.Empty(t, SafeValue("password", ""))
}

func TestFilteringWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fw := NewFilteringWriter(&buf)

	input := []byte(`{"msg":"dial postgres://u:` + fakePassword() + `@db/x"}`)
	n, err := fw.Write(input)
	require.NoError(t, err)
	assert.Equal(t, len(input), n)
	assert.NotContains(t, buf.String(), fakePassword())
	assert.Contains(t, buf.String(), RedactedValue)
}

func TestSensitiveDataHook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewSensitiveDataHook())

	logger.Info().Msg("dsn postgres://u:" + fakePassword() + "@db/x")
	assert.Contains(t, buf.String(), `"contains_filtered_data":true`)

	buf.Reset()
	logger.Info().Msg("task completed")
	assert.NotContains(t, buf.String(), "contains_filtered_data")
}
