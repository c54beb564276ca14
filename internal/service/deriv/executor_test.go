package deriv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitpulse/internal/domain/models"
)

func TestContractTypeMapping(t *testing.T) {
	cases := map[models.Direction]string{
		models.DirEven:   "DIGITEVEN",
		models.DirOdd:    "DIGITODD",
		models.DirOver:   "DIGITOVER",
		models.DirUnder:  "DIGITUNDER",
		models.DirMatch:  "DIGITMATCH",
		models.DirDiffer: "DIGITDIFF",
	}
	for dir, want := range cases {
		got, err := contractType(dir)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := contractType(models.Direction("SIDEWAYS"))
	require.Error(t, err)
}

func TestBarrierOnlyForTargetedContracts(t *testing.T) {
	sig := models.TradeSignal{Direction: models.DirOver, TargetDigit: 5}
	assert.Equal(t, "5", barrier(sig))

	sig = models.TradeSignal{Direction: models.DirMatch, TargetDigit: 7}
	assert.Equal(t, "7", barrier(sig))

	sig = models.TradeSignal{Direction: models.DirEven, TargetDigit: -1}
	assert.Equal(t, "", barrier(sig))
}

func TestTickPayloadPreservesQuoteDigits(t *testing.T) {
	raw := []byte(`{"msg_type":"tick","tick":{"symbol":"R_100","quote":7678.80,"epoch":1700000000}}`)
	var m tickMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	require.NotNil(t, m.Tick)

	s := toSample(m.Tick)
	require.NotNil(t, s)
	// the trailing zero is the significant digit, not 8
	assert.Equal(t, 0, s.LastDigit)
	assert.Equal(t, 7678.8, s.Price)
	assert.Equal(t, "R_100", s.Symbol)
}
