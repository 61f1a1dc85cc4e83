package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetURL(t *testing.T) {
	assert.Equal(t, "http://h/", Options{URL: "http://h/"}.TargetURL())
	assert.Equal(t, "http://h/?cine", Options{URL: "http://h/", Query: "cine"}.TargetURL())
	assert.Equal(t, "http://h/list?2024-06-20", Options{URL: "http://h/list?old#x", Query: "?2024-06-20"}.TargetURL())
}

func TestCapturePNGValidatesOptions(t *testing.T) {
	err := CapturePNG(context.Background(), Options{OutputPath: "x.png"})
	assert.ErrorContains(t, err, "URL is required")

	err = CapturePNG(context.Background(), Options{URL: "http://h/"})
	assert.ErrorContains(t, err, "OutputPath is required")
}
