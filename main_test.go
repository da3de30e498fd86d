package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandelbrot/misc"
	"mandelbrot/output"
)

const testColumns, testRows = 20, 6

func writeSettings(t *testing.T) string {
	settingsFile := filepath.Join(t.TempDir(), "settings.yaml")
	content := fmt.Sprintf("mandelbrotSettings:\n  rows: %d\n  columns: %d\n  maxIterations: 200\n", testRows, testColumns)
	require.NoError(t, os.WriteFile(settingsFile, []byte(content), 0o644))
	return settingsFile
}

func TestRunRejectsBadArguments(t *testing.T) {
	testCases := []struct {
		description string
		args        []string
		stderr      string
	}{
		{description: "no arguments", args: nil, stderr: "Exactly 1 argument required"},
		{description: "two arguments", args: []string{"1", "2"}, stderr: "Exactly 1 argument required"},
		{description: "zero workers", args: []string{"0"}, stderr: "`0' is not valid for `thread_count'"},
		{description: "negative workers", args: []string{"-output", "x", "--", "-2"}, stderr: "`-2' is not valid"},
		{description: "not a number", args: []string{"abc"}, stderr: "`abc' is not valid for `thread_count'"},
		{description: "serve with workers", args: []string{"-serve", "3"}, stderr: "Exactly 1 argument required"},
		{description: "unknown flag", args: []string{"-colour", "3"}, stderr: "flag provided but not defined"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(testCase.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
			assert.Contains(t, stderr.String(), testCase.stderr)
		})
	}
}

func TestRunBadSettingsFile(t *testing.T) {
	var stdout bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.json")
	assert.Equal(t, 1, run([]string{"-settings", missing, "2"}, &stdout, io.Discard))
	assert.Empty(t, stdout.String())
}

func TestRunSameImageForAnyWorkerCount(t *testing.T) {
	settingsFile := writeSettings(t)

	var images []string
	for _, workers := range []string{"1", "3", "8"} {
		var stdout, stderr bytes.Buffer
		require.Equal(t, 0, run([]string{"-settings", settingsFile, workers}, &stdout, &stderr), stderr.String())
		require.True(t, strings.HasSuffix(stdout.String(), output.ResetColor+"OK.\n"))
		images = append(images, stdout.String())
	}
	assert.Equal(t, images[0], images[1])
	assert.Equal(t, images[0], images[2])
	assert.Equal(t, testRows, strings.Count(images[0], "\n")-1)
}

func TestRunToOutputFile(t *testing.T) {
	settingsFile := writeSettings(t)
	outputFile := filepath.Join(t.TempDir(), "image.txt")

	var stdout bytes.Buffer
	require.Equal(t, 0, run([]string{"-settings", settingsFile, "-output", outputFile, "3"}, &stdout, io.Discard))
	assert.Equal(t, "OK.\n", stdout.String())

	image, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(image), output.ResetColor))
}

// captureStdout points os.Stdout at a pipe until the test ends and returns what was printed on it.
func captureStdout(t *testing.T) func() string {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)

	saved := os.Stdout
	os.Stdout = writer

	var captured bytes.Buffer
	drained := make(chan struct{})
	go func() {
		io.Copy(&captured, reader)
		close(drained)
	}()

	restored := false
	restore := func() string {
		if !restored {
			restored = true
			os.Stdout = saved
			writer.Close()
			<-drained
			reader.Close()
		}
		return captured.String()
	}
	t.Cleanup(func() { restore() })
	return restore
}

func TestRemoteDisplayImageHasNoLogLines(t *testing.T) {
	settingsFile := writeSettings(t)
	port, err := misc.GetFreePort()
	require.NoError(t, err)
	address := fmt.Sprintf("127.0.0.1:%d", port)

	logged := captureStdout(t)

	var serverOut bytes.Buffer
	served := make(chan int, 1)
	go func() {
		served <- run([]string{"-serve", "-address", address, "-settings", settingsFile}, &serverOut, io.Discard)
	}()

	// the server may not be listening yet
	var clientOut bytes.Buffer
	for attempt := 0; ; attempt++ {
		clientOut.Reset()
		if run([]string{"-display", "-address", address, "-settings", settingsFile, "4"}, &clientOut, io.Discard) == 0 {
			break
		}
		require.Less(t, attempt, 50, "renderer never reached the display server")
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case code := <-served:
		require.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("display server never finished")
	}
	logLines := logged()

	assert.Equal(t, "OK.\n", clientOut.String())

	image, found := strings.CutSuffix(serverOut.String(), output.ResetColor+"OK.\n")
	require.True(t, found, "%q", serverOut.String())
	rows := strings.Split(strings.TrimSuffix(image, "\n"), "\n")
	require.Len(t, rows, testRows)
	row := regexp.MustCompile(fmt.Sprintf(`^(\x1b\[38;5;\d{1,3}m@){%d}$`, testColumns))
	for i, line := range rows {
		assert.Regexp(t, row, line, "row %d", i)
	}

	// multirpc still logs, just not into the image
	assert.Contains(t, logLines, "[DisplayServer]")
	assert.Contains(t, logLines, "[DisplayClient]")

	var local bytes.Buffer
	require.Equal(t, 0, run([]string{"-settings", settingsFile, "1"}, &local, io.Discard))
	assert.Equal(t, local.String(), serverOut.String())
}
