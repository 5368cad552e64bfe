package metrics

import (
	"errors"
	"fmt"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"

	"prophet-betting/internal/apperr"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "ALREADY_RESOLVED", Result(fmt.Errorf("resolve: %w", apperr.ErrAlreadyResolved)))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestStakeCounterIncrements(t *testing.T) {
	read := func() float64 {
		var m dto.Metric
		if err := Stakes.WithLabelValues("ok").Write(&m); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		return m.GetCounter().GetValue()
	}

	before := read()
	Stakes.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, read())
}
