package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lvconn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
order: 2
delta: 0.1
nfft: 16
reduce_dim: 3
measure: PDC
window: {length: 100, step: 50}
`), 0o644))

	return path
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	d := demo{configPath: writeConfig(t), samples: 300, trials: 4, channels: 5, seed: 3}
	require.NoError(t, run(context.Background(), d, &out))

	text := out.String()
	assert.Contains(t, text, "3 components, order 2")
	assert.Contains(t, text, "all PDC: 4 windows × 16 bins")
	assert.Equal(t, 4, strings.Count(text, "  window "))
}

func TestRun_ClassesAndPNG(t *testing.T) {
	var out bytes.Buffer
	png := filepath.Join(t.TempDir(), "maps.png")
	d := demo{configPath: writeConfig(t), samples: 300, trials: 4, channels: 4, classes: true, seed: 5, pngPath: png}
	require.NoError(t, run(context.Background(), d, &out))

	assert.Contains(t, out.String(), "even PDC:")
	assert.Contains(t, out.String(), "odd PDC:")
	img, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), demo{channels: 2, samples: 10, trials: 1}, &out)
	assert.Error(t, err)

	err = run(context.Background(), demo{configPath: filepath.Join(t.TempDir(), "none.yaml"), channels: 3}, &out)
	assert.Error(t, err)
}
