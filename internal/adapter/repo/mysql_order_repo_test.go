package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

// JSON columns reject empty strings, so optional text must bind as NULL.
func TestNullableBindsEmptyAsNull(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, `[{"id":"x"}]`, nullable(`[{"id":"x"}]`))
}

func TestMarshalAddress(t *testing.T) {
	v, err := marshalAddress(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = marshalAddress(&domain.DeliveryAddress{Street: "Rua A", Number: "10", City: "São Paulo"})
	require.NoError(t, err)
	require.IsType(t, "", v)
	assert.Contains(t, v.(string), `"street":"Rua A"`)
}
