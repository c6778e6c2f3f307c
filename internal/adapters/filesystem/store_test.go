package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ies4ops/internal/application"
	"ies4ops/internal/domain"
	"ies4ops/internal/logger"
)

const sampleDoc = `{
  "_metadata": {"source": "R&D <field>"},
  "vehicles": [
    {"id": "v-1", "type": "tank", "names": [{"value": "T-72"}]}
  ],
  "vehicleTypes": [{"id": "tank"}],
  "areas": []
}
`

func newTestStore(now time.Time) *Store {
	return NewStore(
		WithClock(func() time.Time { return now }),
		WithStoreLogger(logger.Discard()),
	)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestBackupPath(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.FixedZone("EET", 2*3600))

	got := BackupPath("/data/odesa_oblast.json", at)

	assert.Equal(t, "/data/odesa_oblast_backup_2025-03-14T07-26-53-589Z.json", got)
}

func TestStore_StatErrors(t *testing.T) {
	s := newTestStore(time.Now())
	dir := t.TempDir()

	_, err := s.Stat(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, application.ErrFileNotFound)

	_, err = s.Stat(dir)
	assert.ErrorIs(t, err, application.ErrFileNotFound)

	var fe *application.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, dir, fe.Path)
}

func TestStore_StatPermission(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	s := newTestStore(time.Now())
	path := writeFile(t, t.TempDir(), "locked.json", sampleDoc)
	require.NoError(t, os.Chmod(path, 0))

	_, err := s.Stat(path)
	assert.ErrorIs(t, err, application.ErrPermission)
}

func TestStore_Backup(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	s := newTestStore(now)
	dir := t.TempDir()
	path := writeFile(t, dir, "odesa_oblast.json", sampleDoc)

	backup, err := s.Backup(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "odesa_oblast_backup_2025-01-02T03-04-05-006Z.json"), backup)
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(data))

	// the same instant never overwrites an earlier backup
	_, err = s.Backup(path)
	assert.Error(t, err)
}

func TestStore_LoadSaveRoundTrip(t *testing.T) {
	s := newTestStore(time.Now())
	path := writeFile(t, t.TempDir(), "db.json", sampleDoc)

	doc, err := s.Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "\n  \"vehicles\": [\n    {\n      \"id\": \"v-1\",")
	assert.Contains(t, out, `"R&D <field>"`)
	assert.Less(t, strings.Index(out, "_metadata"), strings.Index(out, "vehicles"))
	assert.Less(t, strings.Index(out, "vehicleTypes"), strings.Index(out, "areas"))

	again, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Counts(), again.Counts())

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_LoadErrors(t *testing.T) {
	s := newTestStore(time.Now())
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
		kind error
	}{
		{"invalid json", `{"vehicles": [`, application.ErrParse},
		{"root is an array", `[]`, application.ErrParse},
		{"collection is an object", `{"vehicles": {"id": "x"}}`, application.ErrParse},
		{"collection holds strings", `{"vehicleTypes": ["tank"]}`, application.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".json", tt.body)
			_, err := s.Load(path)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err := s.Load(filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, application.ErrFileNotFound)
}

func TestStore_Counts(t *testing.T) {
	s := newTestStore(time.Now())
	path := writeFile(t, t.TempDir(), "db.json", sampleDoc)

	counts, err := s.Counts(path)
	require.NoError(t, err)

	assert.Equal(t, 1, counts[domain.CollectionVehicles])
	assert.Equal(t, 1, counts[domain.CollectionVehicleTypes])
	assert.Equal(t, 0, counts[domain.CollectionAreas])
}

func TestStore_ListBackups(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sumy_oblast.json", sampleDoc)
	writeFile(t, dir, "other_backup_2025-01-01T00-00-00-000Z.json", "{}")

	for _, day := range []int{3, 1, 2} {
		s := newTestStore(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC))
		_, err := s.Backup(path)
		require.NoError(t, err)
	}

	backups, err := newTestStore(time.Now()).ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 3)

	assert.Contains(t, backups[0].Path, "2025-01-03")
	assert.Contains(t, backups[2].Path, "2025-01-01")
}

func TestUnescapeHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"a&b"`, `"a&b"`},
		{`"<tag>"`, `"<tag>"`},
		{`"\\u0026"`, `"\\u0026"`},
		{`"é"`, `"é"`},
		{`"plain"`, `"plain"`},
	}

	for _, tt := range tests {
		if got := string(unescapeHTML([]byte(tt.in))); got != tt.want {
			t.Errorf("unescapeHTML(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFileError_Kinds(t *testing.T) {
	err := fileError("read", "/x", os.ErrNotExist)
	assert.True(t, errors.Is(err, application.ErrFileNotFound))

	err = fileError("read", "/x", os.ErrPermission)
	assert.True(t, errors.Is(err, application.ErrPermission))
}
