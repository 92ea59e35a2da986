package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/users/:username", "200"))
	RecordRequest("GET", "/api/users/:username", 200, 0.01)
	after := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/users/:username", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveOperation_LabelsResult(t *testing.T) {
	var err error
	ObserveOperation("probe", time.Now(), &err)
	err = errors.New("boom")
	ObserveOperation("probe", time.Now(), &err)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(OperationDuration), 2)
}

func TestIncEventsPublished(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("follow.created", "error"))
	IncEventsPublished("follow.created", errors.New("down"))
	assert.Equal(t, before+1, testutil.ToFloat64(EventsPublished.WithLabelValues("follow.created", "error")))
}
