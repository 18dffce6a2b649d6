package checksum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedAndVerify(t *testing.T) {
	payload := map[string]interface{}{
		"status":         "PASS",
		"invoice_number": "NF-001",
		"calculated_cbs": "92.50",
	}

	sealed, sum, err := Embed(payload)
	require.NoError(t, err)
	assert.Len(t, sum, 64)
	assert.Equal(t, sum, sealed[Key])
	assert.NotContains(t, payload, Key, "input payload stays untouched")

	verified, err := Verify(sealed)
	require.NoError(t, err)
	assert.Equal(t, sum, verified)
}

func TestVerifySurvivesJSONRoundTrip(t *testing.T) {
	// Stored payloads go through JSONB and come back with float64 numbers;
	// the checksum must still verify.
	payload := map[string]interface{}{
		"matched":       float64(3),
		"total_records": float64(5),
		"nested": map[string]interface{}{
			"b": "2",
			"a": "1",
		},
	}

	sealed, sum, err := Embed(payload)
	require.NoError(t, err)

	raw, err := json.Marshal(sealed)
	require.NoError(t, err)
	var restored map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &restored))

	verified, err := Verify(restored)
	require.NoError(t, err)
	assert.Equal(t, sum, verified)
}

func TestVerifyDetectsTampering(t *testing.T) {
	sealed, _, err := Embed(map[string]interface{}{"amount": "100.00"})
	require.NoError(t, err)

	sealed["amount"] = "999.00"

	_, err = Verify(sealed)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.NotEqual(t, mismatch.Recorded, mismatch.Derived)
}

func TestVerifyMissingChecksum(t *testing.T) {
	_, err := Verify(map[string]interface{}{"amount": "100.00"})
	assert.ErrorIs(t, err, ErrMissingChecksum)
}

func TestComputeKnownVector(t *testing.T) {
	// sha256 of the canonical form {"amount":"100.00","invoice":"NF-001"}
	sum, err := Compute(map[string]interface{}{
		"invoice": "NF-001",
		"amount":  "100.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2122d442650c62b98e77eb484018ca0d1edb28b728115ba937eba4b514175f52", sum)
}

func TestComputeIgnoresKeyOrderAndReservedKey(t *testing.T) {
	a, err := Compute(map[string]interface{}{"x": "1", "y": "2"})
	require.NoError(t, err)
	b, err := Compute(map[string]interface{}{"y": "2", "x": "1", Key: "stale"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
