package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoader_Load(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := `# Comment
EXPECT_LOG_LEVEL=debug
EXPECT_MONITOR_ADDR="127.0.0.1:7070"
EMPTY=
SINGLE_QUOTE='single'
not a pair
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	l := NewLoader()
	require.NoError(t, l.Load(envFile))
	assert.True(t, l.Loaded())
	assert.Equal(t, "debug", l.vars["EXPECT_LOG_LEVEL"])
	assert.Equal(t, "127.0.0.1:7070", l.vars["EXPECT_MONITOR_ADDR"])
	assert.Equal(t, "", l.vars["EMPTY"])
	assert.Equal(t, "single", l.vars["SINGLE_QUOTE"])
	assert.Len(t, l.vars, 4)
}

func TestDefaultLoader_Load_FileNotFound(t *testing.T) {
	l := NewLoader()
	err := l.Load("/nonexistent/.env")
	assert.Error(t, err)
	assert.False(t, l.Loaded())
}

func TestDefaultLoader_Lookup(t *testing.T) {
	l := NewLoaderFrom(map[string]string{
		"FROM_FILE": "file",
		"BLANK":     "",
	})

	v, ok := l.Lookup("FROM_FILE")
	assert.True(t, ok)
	assert.Equal(t, "file", v)

	_, ok = l.Lookup("BLANK")
	assert.False(t, ok, "blank values count as unset")

	_, ok = l.Lookup("NONEXISTENT_EXPECT_KEY")
	assert.False(t, ok)

	// OS env takes precedence
	t.Setenv("FROM_FILE", "os")
	assert.Equal(t, "os", l.Get("FROM_FILE"))
}

func TestDefaultLoader_GetRequired(t *testing.T) {
	l := NewLoaderFrom(map[string]string{"EXISTS": "value"})

	v, err := l.GetRequired("EXISTS")
	assert.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = l.GetRequired("MISSING_EXPECT_KEY")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING_EXPECT_KEY")
}

func TestDefaultLoader_GetWithDefault(t *testing.T) {
	l := NewLoaderFrom(map[string]string{"EXISTS": "value"})

	assert.Equal(t, "value", l.GetWithDefault("EXISTS", "default"))
	assert.Equal(t, "default", l.GetWithDefault("MISSING_EXPECT_KEY", "default"))
}

func TestDefaultLoader_Set(t *testing.T) {
	t.Setenv("EXPECT_SET_VAR", "")
	l := NewLoader()
	require.NoError(t, l.Set("EXPECT_SET_VAR", "my_value"))
	assert.Equal(t, "my_value", l.Get("EXPECT_SET_VAR"))
}

func TestDefaultLoader_All(t *testing.T) {
	l := NewLoaderFrom(map[string]string{"A": "1", "B": "2"})

	all := l.All()
	assert.Equal(t, "1", all["A"])
	assert.Equal(t, "2", all["B"])

	// Verify it's a copy
	all["C"] = "3"
	assert.Empty(t, l.vars["C"])
}

func TestTypedGetters(t *testing.T) {
	l := NewLoaderFrom(map[string]string{
		"D":     "1500ms",
		"N":     "8",
		"B":     "true",
		"BAD_D": "soon",
		"BAD_N": "many",
		"BAD_B": "maybe",
	})

	d, ok, err := Duration(l, "D")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	n, ok, err := Int(l, "N")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	b, ok, err := Bool(l, "B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b)

	_, ok, err = Duration(l, "UNSET_EXPECT_KEY")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Duration(l, "BAD_D")
	assert.ErrorContains(t, err, "BAD_D")
	_, _, err = Int(l, "BAD_N")
	assert.ErrorContains(t, err, "BAD_N")
	_, _, err = Bool(l, "BAD_B")
	assert.ErrorContains(t, err, "BAD_B")
}
