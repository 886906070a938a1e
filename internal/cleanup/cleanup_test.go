package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteStaleFirmware(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "old1.ipsw"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old2.ipsw"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "16.0.ipsw"), []byte("keep"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	DeleteStaleFirmware(context.Background(), dir, "16.0.ipsw")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := []string{entries[0].Name(), entries[1].Name()}
	assert.Contains(t, names, "16.0.ipsw")
	assert.Contains(t, names, "nested")
}

func TestDeleteStaleFirmware_MissingDirIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		DeleteStaleFirmware(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), "x.ipsw")
	})
}
