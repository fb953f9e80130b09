// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "empty", cfg: Config{}},
		{name: "json", cfg: Config{Level: "debug", Format: "json"}},
		{name: "bad-level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad-format", cfg: Config{Format: "xml"}, wantErr: true},
	}
	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			logger, err := NewLogger(c.cfg)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestLevel(t *testing.T) {
	l, err := Config{Level: "warn"}.level()
	require.NoError(t, err)
	require.Equal(t, zap.NewAtomicLevelAt(zapcore.WarnLevel).Level(), l.Level())

	l, err = Config{}.level()
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, l.Level())
}

func TestFileOutput(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "inventory.log")
	logger, err := NewLogger(Config{Level: "info", Format: "json", Filename: filename, MaxSize: 1})
	require.NoError(t, err)

	logger.Info("product added", zap.String("id", "LPT-1452"))
	logger.Debug("filtered")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"product added"`)
	require.Contains(t, string(data), `"id":"LPT-1452"`)
	require.NotContains(t, string(data), "filtered")
}
