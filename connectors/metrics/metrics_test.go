package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserver(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FileProcessed("a.xlsx", 48)
	m.FileProcessed("b.xlsx", 2)
	m.FileSkipped("c.xlsx", "no overlap")
	m.FileFailed("d.xlsx", errors.New("Missing Columns"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesTotal.WithLabelValues(resultProcessed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesTotal.WithLabelValues(resultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesTotal.WithLabelValues(resultFailed)))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.RowsTotal))
}

func TestObserveBatchAndFetch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBatch(true, time.Second)
	m.ObserveBatch(false, time.Second)
	m.ObserveFetch(nil)
	m.ObserveFetch(errors.New("API Error"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BatchDuration))
}
