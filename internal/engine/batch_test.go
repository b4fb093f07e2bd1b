package engine

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "carriercost/internal/shipment"
)

func batchShipments() []shipment.Shipment {
    dec5 := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)
    return []shipment.Shipment{
        ship(1, 1, 1, 1, "40202", june10),
        ship(50, 1, 1, 1, "40202", dec5),
        ship(10, 8, 4, 2, "59718", june10),
        ship(60, 30, 30, 10, "40202", dec5),
        ship(24, 20, 16, 4, "59718", dec5),
    }
}

func TestEvaluateBatchPreservesOrder(t *testing.T) {
    set := testSet(t)
    in := batchShipments()
    out, err := EvaluateBatch(context.Background(), set, testZones(), in, 3)
    require.NoError(t, err)
    require.Len(t, out, len(in))
    for i := range in {
        assert.Equal(t, in[i].DestZIP, out[i].DestZIP, "row %d out of order", i)
        assert.Equal(t, set.Version, out[i].RuleSetVersion)
    }
}

func TestEvaluateBatchDeterministic(t *testing.T) {
    set := testSet(t)
    in := batchShipments()

    serial, err := EvaluateBatch(context.Background(), set, testZones(), in, 1)
    require.NoError(t, err)
    parallel, err := EvaluateBatch(context.Background(), set, testZones(), in, 8)
    require.NoError(t, err)
    again, err := EvaluateBatch(context.Background(), set, testZones(), in, 8)
    require.NoError(t, err)

    assert.Equal(t, serial, parallel)
    assert.Equal(t, parallel, again)
}

func TestEvaluateBatchAbortsOnSchemaError(t *testing.T) {
    set := testSet(t)
    in := batchShipments()
    in[2].WeightLbs = 0
    _, err := EvaluateBatch(context.Background(), set, testZones(), in, 4)
    require.ErrorIs(t, err, shipment.ErrMissingField)
}

func TestEvaluateBatchHonorsCancellation(t *testing.T) {
    set := testSet(t)
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    _, err := EvaluateBatch(ctx, set, testZones(), batchShipments(), 2)
    require.Error(t, err)
}
