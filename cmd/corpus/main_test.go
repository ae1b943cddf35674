package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/retrieval"
)

// writeTestConfig points a config file at a fresh data directory so
// commands run against an empty library.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "corpus.yaml")
	content := fmt.Sprintf("storage:\n  path: %q\n", filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath
}

func TestNewApp(t *testing.T) {
	app := newApp()

	t.Run("has every command", func(t *testing.T) {
		want := []string{
			"ingest", "search", "ask", "status", "fragments", "reprocess",
			"rechunk", "optimize", "cleanup", "export", "delete", "watch",
		}
		for _, name := range want {
			assert.NotNil(t, app.Command(name), "command %s missing", name)
		}
	})

	t.Run("log-level defaults to info", func(t *testing.T) {
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
				break
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "info", levelFlag.Value)
		assert.Contains(t, levelFlag.Aliases, "l")
	})

	t.Run("fragments page defaults to 1", func(t *testing.T) {
		cmd := app.Command("fragments")
		require.NotNil(t, cmd)
		var pageFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "page" {
				pageFlag = f
				break
			}
		}
		require.NotNil(t, pageFlag)
		assert.Equal(t, 1, pageFlag.Value)
	})
}

func TestStatusCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	err := newApp().Run([]string{"corpus", "--config", cfgPath, "status"})
	require.NoError(t, err)
}

func TestCleanupCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	err := newApp().Run([]string{"corpus", "--config", cfgPath, "cleanup"})
	require.NoError(t, err)
}

func TestOptimizeCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	err := newApp().Run([]string{"corpus", "--config", cfgPath, "optimize"})
	require.NoError(t, err)
}

func TestDocumentIDValidation(t *testing.T) {
	cfgPath := writeTestConfig(t)

	t.Run("missing id fails", func(t *testing.T) {
		err := newApp().Run([]string{"corpus", "--config", cfgPath, "fragments"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "document id is required")
	})

	t.Run("malformed id fails", func(t *testing.T) {
		err := newApp().Run([]string{"corpus", "--config", cfgPath, "fragments", "abc"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid document id")
	})

	t.Run("unknown id fails", func(t *testing.T) {
		err := newApp().Run([]string{"corpus", "--config", cfgPath, "delete", "424242"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete failed")
	})
}

func TestIngestCommandValidation(t *testing.T) {
	cfgPath := writeTestConfig(t)

	t.Run("requires at least one file", func(t *testing.T) {
		err := newApp().Run([]string{"corpus", "--config", cfgPath, "ingest"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one file")
	})

	t.Run("title with multiple files fails", func(t *testing.T) {
		err := newApp().Run([]string{"corpus", "--config", cfgPath, "ingest", "--title", "x", "a.txt", "b.txt"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "single file")
	})
}

func TestSearchCommandValidation(t *testing.T) {
	cfgPath := writeTestConfig(t)

	err := newApp().Run([]string{"corpus", "--config", cfgPath, "search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestWatchCommandValidation(t *testing.T) {
	cfgPath := writeTestConfig(t)

	err := newApp().Run([]string{"corpus", "--config", cfgPath, "watch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one directory")
}

func TestSearchOptions(t *testing.T) {
	var got retrieval.SearchOptions
	app := &cli.App{
		Name: "test",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Flags: searchFlags(),
				Action: func(c *cli.Context) error {
					got = searchOptions(c)
					return nil
				},
			},
		},
	}

	err := app.Run([]string{"test", "search", "--limit", "5", "--threshold", "0.4", "--document", "7", "--document", "9"})
	require.NoError(t, err)

	assert.Equal(t, 5, got.Limit)
	assert.InDelta(t, 0.4, got.Threshold, 0.001)
	assert.Equal(t, []core.ID{7, 9}, got.DocumentIds)
}

func TestFormatTrack(t *testing.T) {
	t.Run("orders counts and skips zeroes", func(t *testing.T) {
		counts := map[core.Status]int{
			core.StatusPending:   2,
			core.StatusCompleted: 5,
			core.StatusFailed:    1,
		}
		assert.Equal(t, "completed=5 pending=2 failed=1", formatTrack(counts))
	})

	t.Run("empty map reads none", func(t *testing.T) {
		assert.Equal(t, "none", formatTrack(nil))
	})
}

func TestSnippet(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "hello world", snippet("hello world", 20))
	})

	t.Run("whitespace collapses", func(t *testing.T) {
		assert.Equal(t, "a b c", snippet("a\n  b\t c", 20))
	})

	t.Run("long text truncates on runes", func(t *testing.T) {
		got := snippet("日本語のテキストです", 4)
		assert.Equal(t, "日本語の...", got)
	})
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newLoggerApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(level, func(t *testing.T) {
				err := newLoggerApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
