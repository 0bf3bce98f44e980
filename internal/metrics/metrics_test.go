package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFetch(t *testing.T) {
	before := testutil.ToFloat64(PagesFetched.WithLabelValues("browse", "ok"))
	ObserveFetch("browse", "ok", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(PagesFetched.WithLabelValues("browse", "ok")))
}

func TestObserveIngest(t *testing.T) {
	acceptedBefore := testutil.ToFloat64(RowsIngested.WithLabelValues("accepted"))
	skippedBefore := testutil.ToFloat64(RowsIngested.WithLabelValues("skipped"))

	ObserveIngest("ok", 8, 2, time.Now())

	assert.Equal(t, acceptedBefore+8, testutil.ToFloat64(RowsIngested.WithLabelValues("accepted")))
	assert.Equal(t, skippedBefore+2, testutil.ToFloat64(RowsIngested.WithLabelValues("skipped")))
}

func TestObserveHTTP(t *testing.T) {
	cases := map[int]string{200: "2xx", 304: "3xx", 404: "4xx", 499: "4xx", 502: "5xx"}
	for status, class := range cases {
		before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", class))
		ObserveHTTP("GET", status, time.Millisecond)
		assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", class)), "status %d", status)
	}
}
