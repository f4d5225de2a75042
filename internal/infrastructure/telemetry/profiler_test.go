package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	// Stop is idempotent.
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_MissingServerAddress(t *testing.T) {
	cfg := DefaultProfilerConfig()
	cfg.Enabled = true
	cfg.ApplicationName = "finadmin-backend"

	_, err := NewProfiler(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")
}

func TestNewProfiler_MissingApplicationName(t *testing.T) {
	cfg := DefaultProfilerConfig()
	cfg.Enabled = true
	cfg.ServerAddress = "http://localhost:4040"

	_, err := NewProfiler(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application name")
}

func TestDefaultProfilerConfig(t *testing.T) {
	cfg := DefaultProfilerConfig()

	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.ProfileCPU)
	assert.True(t, cfg.ProfileAllocSpace)
	assert.True(t, cfg.ProfileInuseSpace)
	assert.True(t, cfg.ProfileGoroutines)
	// Off by default: they change runtime sampling rates.
	assert.False(t, cfg.ProfileMutexDuration)
	assert.False(t, cfg.ProfileBlockDuration)
}

func TestBuildProfileTypes(t *testing.T) {
	tests := []struct {
		name   string
		config ProfilerConfig
		want   []pyroscope.ProfileType
	}{
		{
			name:   "none enabled",
			config: ProfilerConfig{},
			want:   nil,
		},
		{
			name:   "cpu only",
			config: ProfilerConfig{ProfileCPU: true},
			want:   []pyroscope.ProfileType{pyroscope.ProfileCPU},
		},
		{
			name: "defaults",
			config: ProfilerConfig{
				ProfileCPU:        true,
				ProfileAllocSpace: true,
				ProfileInuseSpace: true,
				ProfileGoroutines: true,
			},
			want: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
				pyroscope.ProfileGoroutines,
			},
		},
		{
			name: "contention profiles",
			config: ProfilerConfig{
				ProfileMutexDuration: true,
				ProfileBlockDuration: true,
			},
			want: []pyroscope.ProfileType{
				pyroscope.ProfileMutexDuration,
				pyroscope.ProfileBlockDuration,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profiler{config: tt.config}
			assert.Equal(t, tt.want, p.buildProfileTypes())
		})
	}
}

func TestPyroscopeLoggerAdapter(t *testing.T) {
	// The adapter must satisfy the pyroscope.Logger interface and not
	// panic with format arguments.
	var l pyroscope.Logger = newPyroscopeLogger(zap.NewNop())
	l.Infof("uploaded %d profiles", 3)
	l.Debugf("session %s", "abc")
	l.Errorf("upload failed: %v", assert.AnError)
}
