package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	image := models.ImageData{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

	got, err := ParseDataURL(" data:image/png;base64,iVBORw== ")
	require.NoError(t, err)
	assert.Equal(t, image, got)
}

func TestParseDataURLRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no scheme":   "image/png;base64,AAAA",
		"no comma":    "data:image/png;base64",
		"not base64":  "data:image/png,AAAA",
		"no mime":     "data:;base64,AAAA",
		"bad payload": "data:image/png;base64,***",
		"empty":       "data:image/png;base64,",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataURL(input)
			assert.True(t, apperrors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestMetricsCollector(t *testing.T) {
	m := NewMetricsCollector()
	m.IncrementCounter("a")
	m.AddCounter("a", 4)
	m.SetGauge("g", 3)
	m.DecGauge("g")
	m.RecordHistogram("h", 10)
	m.RecordHistogram("h", 2)

	assert.Equal(t, int64(5), m.GetCounterValue("a"))
	assert.Equal(t, int64(2), m.GetGauge("g"))
	assert.Equal(t, int64(0), m.GetCounterValue("missing"))

	hist := m.GetMetrics()["histograms"].(map[string]map[string]int64)["h"]
	assert.Equal(t, map[string]int64{"count": 2, "sum": 12, "min": 2, "max": 10}, hist)
}

func TestRecordGeneration(t *testing.T) {
	am := &APIMetrics{metrics: NewMetricsCollector(), logger: GetLogger()}
	am.RecordGeneration("scene", "gemini-2.5-flash-image", 3, time.Second, nil)
	am.RecordGeneration("scene", "gemini-2.5-flash-image", 0, time.Second, errors.New("blocked"))

	c := am.Collector()
	assert.Equal(t, int64(2), c.GetCounterValue("generation_requests_scene"))
	assert.Equal(t, int64(1), c.GetCounterValue("generation_failures_scene"))
	assert.Equal(t, int64(3), c.GetCounterValue("generated_images_total"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, InitLogger(logFile))
	t.Cleanup(func() { _ = GetLogger().Close() })

	GetLogger().Enable(false)
	GetLogger().Info("关闭时不写入", map[string]interface{}{"workspace_id": "ws-0"})
	GetLogger().Enable(true)
	GetLogger().Info("工作区已创建", map[string]interface{}{"workspace_id": "ws-1"})
	_ = GetLogger().Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"workspace_id":"ws-1"`)
	assert.NotContains(t, string(data), "ws-0")
}
