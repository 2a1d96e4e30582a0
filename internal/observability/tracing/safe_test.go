package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/clients"),
		attribute.String("email", "a@b.c"),
		attribute.String("tax_id", "X-1"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorMasksQueries(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.EqualError(t, SafeError(errors.New(`ERROR: duplicate key: INSERT INTO "clients"`)), "internal error")
	assert.EqualError(t, SafeError(errors.New("connection refused")), "connection refused")
}
