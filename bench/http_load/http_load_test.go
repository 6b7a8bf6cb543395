package main

import (
	"net/http"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestTrimmedMean(t *testing.T) {
	assert.Equal(t, 0.0, trimmedMean(nil, 1))
	assert.Equal(t, 3.0, trimmedMean([]float64{1, 2, 3, 4, 5}, 20))
	assert.Equal(t, 5.0, trimmedMean([]float64{5}, 50))
	assert.Equal(t, 2.5, trimmedMean([]float64{2, 3}, 50))
}

func TestPercentile(t *testing.T) {
	data := []float64{10, 20, 30, 40, 50}
	assert.Equal(t, 10.0, percentile(data, 0))
	assert.Equal(t, 30.0, percentile(data, 50))
	assert.Equal(t, 50.0, percentile(data, 100))
	assert.Equal(t, 0.0, percentile(nil, 90))
}

func TestNextRequest_Mix(t *testing.T) {
	f := gofakeit.New(1)

	assert.Equal(t, http.MethodPost, nextRequest("http://x", f, 0, 0, "").Method)
	assert.Equal(t, http.MethodPost, nextRequest("http://x", f, 1, 0, "").Method, "no post yet, so create")

	put := nextRequest("http://x", f, 1, 0, "abc")
	assert.Equal(t, http.MethodPut, put.Method)
	assert.Equal(t, "/posts/abc", put.URL.Path)

	assert.Equal(t, http.MethodGet, nextRequest("http://x", f, 0, 2, "").Method)
	assert.Equal(t, http.MethodGet, nextRequest("http://x", f, 1, 2, "").Method)
	assert.Equal(t, http.MethodPost, nextRequest("http://x", f, 2, 2, "").Method)
}
