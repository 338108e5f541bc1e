package journal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alegrigoriev/py-vss/config"
)

func newTestHandler(t *testing.T, cfgYAML string) (*Handler, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.Unmarshal([]byte(cfgYAML))
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	var buf bytes.Buffer
	j := &Journal{}
	j.SetWriter(&buf)
	h := NewHandler(j, cfg, nil)
	h.BeginChangeset(1000, "alice", "test")
	return h, &buf
}

// TestDeleteDirectoryExpandsLiveFiles is the fix for the reviewer-flagged
// bug: a DeleteDirectory call must emit a delete db.rev for every live file
// the handler has written under that directory, not a silent no-op.
func TestDeleteDirectoryExpandsLiveFiles(t *testing.T) {
	h, buf := newTestHandler(t, "")
	assert.NoError(t, h.CreateFile("$/dir/a.txt", []byte("a"), ""))
	assert.NoError(t, h.CreateFile("$/dir/sub/b.txt", []byte("b"), ""))
	assert.NoError(t, h.CreateFile("$/other/c.txt", []byte("c"), ""))
	buf.Reset()

	assert.NoError(t, h.DeleteDirectory("$/dir"))

	out := buf.String()
	assert.Contains(t, out, "//import/dir/a.txt@ 2")
	assert.Contains(t, out, "//import/dir/sub/b.txt@ 2")
	assert.NotContains(t, out, "//import/other/c.txt@ 2")
	assert.False(t, h.live["//import/dir/a.txt"])
	assert.False(t, h.live["//import/dir/sub/b.txt"])
	assert.True(t, h.live["//import/other/c.txt"])
}

// TestDeleteDirectoryNoLiveFiles confirms an empty/already-deleted
// directory is a legal no-op, not an error.
func TestDeleteDirectoryNoLiveFiles(t *testing.T) {
	h, buf := newTestHandler(t, "")
	buf.Reset()
	assert.NoError(t, h.DeleteDirectory("$/empty"))
	assert.Empty(t, buf.String())
}

// TestRenameDirectoryExpandsLiveFiles mirrors RenameFile's delete-then-branch
// degradation, applied to every live file under the old directory path.
func TestRenameDirectoryExpandsLiveFiles(t *testing.T) {
	h, buf := newTestHandler(t, "")
	assert.NoError(t, h.CreateFile("$/old/a.txt", []byte("a"), ""))
	buf.Reset()

	assert.NoError(t, h.RenameDirectory("$/old", "$/new"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "//import/old/a.txt@ 2"))
	assert.True(t, strings.Contains(out, "//import/new/a.txt@ 1"))
	assert.False(t, h.live["//import/old/a.txt"])
	assert.True(t, h.live["//import/new/a.txt"])
}

// TestBranchMappingRewritesDepotPrefix is the fix for the dead
// config.BranchMappings field: a matching mapping must replace ImportPath
// in the emitted depot path.
func TestBranchMappingRewritesDepotPrefix(t *testing.T) {
	const cfgYAML = `
import_depot: import
import_path: trunk
branch_mappings:
- name: ^branches/.*
  prefix: branches
`
	h, buf := newTestHandler(t, cfgYAML)
	assert.NoError(t, h.CreateFile("$/branches/feature/a.txt", []byte("a"), ""))
	assert.NoError(t, h.CreateFile("$/main/b.txt", []byte("b"), ""))

	out := buf.String()
	assert.Contains(t, out, "//import/branches/branches/feature/a.txt@ 1")
	assert.Contains(t, out, "//import/trunk/main/b.txt@ 1")
}
