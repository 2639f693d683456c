package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false)

	l.Debug().Msg("被过滤")
	l.Info().Str("candidate_id", "c1").Msg("候选人已创建")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "应只输出一行 JSON")
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "c1", entry["candidate_id"])
	assert.Equal(t, "候选人已创建", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestInit_WritesToFile(t *testing.T) {
	original := Logger
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		Logger = original
		zerolog.SetGlobalLevel(originalLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	closer, err := Init(Config{Level: "debug", Format: "json", FilePath: path})
	require.NoError(t, err)
	require.NotNil(t, closer)

	Info().Msg("写入文件")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "写入文件")
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))

	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false)
	ctx := l.WithContext(context.Background())
	Ctx(ctx).Info().Msg("from ctx")
	assert.Contains(t, buf.String(), "from ctx")
}
