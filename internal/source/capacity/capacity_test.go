package capacity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadServerConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *float64
		wantErr bool
	}{
		{name: "key", content: "world=/config/a.wld\n# maxplayers=2\n MaxPlayers = 16 \nport=7777\n", want: ptr(16)},
		{name: "no key", content: "port=7777\n"},
		{name: "not a number", content: "maxplayers=lots\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadServerConfig(writeFile(t, "serverconfig.txt", tt.content))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReadTShockConfig(t *testing.T) {
	got, err := ReadTShockConfig(writeFile(t, "config.json", `{"Settings":{"MaxSlots":24,"ServerPassword":""}}`))
	require.NoError(t, err)
	require.Equal(t, 24.0, *got)

	got, err = ReadTShockConfig(writeFile(t, "config.json", `{"Settings":{}}`))
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = ReadTShockConfig(writeFile(t, "config.json", `{"Settings":{"MaxSlots":"many"}}`))
	require.Error(t, err)
}

func TestMissingFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	for _, read := range []func(string) (*float64, error){ReadServerConfig, ReadTShockConfig} {
		got, err := read(missing)
		require.NoError(t, err)
		require.Nil(t, got)

		got, err = read("")
		require.NoError(t, err)
		require.Nil(t, got)

		got, err = read(t.TempDir())
		require.NoError(t, err)
		require.Nil(t, got)
	}
}

func ptr(v float64) *float64 { return &v }
