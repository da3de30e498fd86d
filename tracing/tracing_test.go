package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpansAreExported(t *testing.T) {
	var buffer bytes.Buffer
	shutdown, err := Init(context.Background(), "mandelbrot-test", "run-1", &buffer)
	require.NoError(t, err)

	ctx, render := StartSpan(context.Background(), "render")
	_, row := StartSpan(ctx, "row", Row(3), Worker(1))
	EndSpan(row, errors.New("sink closed"))
	EndSpan(render, nil)
	require.NoError(t, shutdown(context.Background()))

	exported := buffer.String()
	assert.Contains(t, exported, `"Name":"row"`)
	assert.Contains(t, exported, `"Name":"render"`)
	assert.Contains(t, exported, "row.index")
	assert.Contains(t, exported, "sink closed")
	assert.Contains(t, exported, "run-1")
}

func TestEndSpanNil(t *testing.T) {
	assert.NotPanics(t, func() {
		EndSpan(nil, nil)
	})
}
