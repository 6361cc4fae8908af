package requestlog

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"governance-gateway/middleware/identity"
)

var lineRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - INFO - IP: (.*), User: (.*), Request Time: (.*)$`)

func TestEntry_Message(t *testing.T) {
	e := Entry{
		Address:  "1.2.3.4",
		Identity: "Anonymous",
		Time:     time.Date(2024, 3, 5, 7, 8, 9, 123456000, time.UTC),
	}
	assert.Equal(t, "IP: 1.2.3.4, User: Anonymous, Request Time: 2024-03-05 07:08:09.123456", e.Message())
}

func TestSink_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)

	s.Observe(Entry{Address: "1.2.3.4", Identity: "gold@example.com", Time: time.Now()})
	require.NoError(t, s.Sync())

	line := strings.TrimRight(buf.String(), "\n")
	m := lineRe.FindStringSubmatch(line)
	require.NotNil(t, m, "unexpected line %q", line)
	assert.Equal(t, "1.2.3.4", m[1])
	assert.Equal(t, "gold@example.com", m[2])
}

func TestOpen_CreatesDirAndIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	s1, err := Open(dir)
	require.NoError(t, err)
	s2, err := Open(dir)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, filepath.Join(dir, FileName), s1.Path())

	s1.Observe(Entry{Address: "10.0.0.1", Identity: identity.AnonymousLabel, Time: time.Now()})
	s2.Observe(Entry{Address: "10.0.0.2", Identity: identity.AnonymousLabel, Time: time.Now()})
	require.NoError(t, s1.Close())
	require.NoError(t, s2.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	// um único writer: cada entrada aparece exatamente uma vez
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "IP: 10.0.0.1")
	assert.Contains(t, lines[1], "IP: 10.0.0.2")

	// depois de Close, Open reabre e continua no fim do arquivo
	s3, err := Open(dir)
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	require.NoError(t, s3.Close())
}

func TestClose_SharedSinkStaysOpenForOtherOwners(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	first, err := Open(dir)
	require.NoError(t, err)
	second, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, first.Close())
	// o segundo dono ainda escreve no mesmo arquivo
	second.Observe(Entry{Address: "10.0.0.3", Identity: identity.AnonymousLabel, Time: time.Now()})

	again, err := Open(dir)
	require.NoError(t, err)
	assert.Same(t, second, again)

	require.NoError(t, second.Close())
	require.NoError(t, again.Close())
	// Close extra não tem efeito
	require.NoError(t, again.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "IP: 10.0.0.3")
}

func TestOpen_FailureDegradesToNop(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s, err := Open(filepath.Join(blocker, "logs"))
	require.Error(t, err)
	require.NotNil(t, s)

	assert.NotPanics(t, func() {
		s.Observe(Entry{Address: "1.2.3.4", Identity: "Anonymous", Time: time.Now()})
	})
	assert.NoError(t, s.Close())
}
