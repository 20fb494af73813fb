package whispercpp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-Sinha-7981/Misty-Webapp/internal/config"
)

// fakeRunner simulates ffmpeg and whisper-cli.
type fakeRunner struct {
	run   func(name string, args []string) (commandResult, error)
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (commandResult, error) {
	f.calls = append(f.calls, name)
	return f.run(name, args)
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func newTestTranscriber(t *testing.T, runner commandRunner, language string) *Transcriber {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ggml-tiny.bin"), []byte("m"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ggml-base.bin"), []byte("m"), 0o600))

	tr := New(config.WhisperCPPConfig{
		Binary:    "whisper-cli",
		FFmpeg:    "ffmpeg",
		ModelPath: dir,
		Language:  language,
		Threads:   4,
	})
	tr.runner = runner
	return tr
}

func TestTranscribeSuccess(t *testing.T) {
	var whisper []string
	runner := &fakeRunner{run: func(name string, args []string) (commandResult, error) {
		switch name {
		case "ffmpeg":
			assert.Equal(t, ".ogg", filepath.Ext(argValue(args, "-i")))
			return commandResult{}, os.WriteFile(args[len(args)-1], []byte("wav"), 0o600)
		case "whisper-cli":
			whisper = args
			return commandResult{}, os.WriteFile(argValue(args, "-of")+".txt", []byte("\n what is\n recursion \n"), 0o600)
		}
		t.Fatalf("unexpected command %q", name)
		return commandResult{}, nil
	}}

	tr := newTestTranscriber(t, runner, "EN")
	res, err := tr.Transcribe(context.Background(), []byte("OggS"), "audio/ogg")
	require.NoError(t, err)

	assert.Equal(t, "what is recursion", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, []string{"ffmpeg", "whisper-cli"}, runner.calls)
	assert.Equal(t, "ggml-base.bin", filepath.Base(argValue(whisper, "-m")))
	assert.Equal(t, "en", argValue(whisper, "-l"))
	assert.Equal(t, "4", argValue(whisper, "-t"))
}

func TestTranscribeAutoLanguage(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args []string) (commandResult, error) {
		if name == "whisper-cli" {
			assert.NotContains(t, args, "-l")
			return commandResult{}, os.WriteFile(argValue(args, "-of")+".txt", []byte("hi"), 0o600)
		}
		return commandResult{}, nil
	}}

	tr := newTestTranscriber(t, runner, "auto")
	res, err := tr.Transcribe(context.Background(), []byte("RIFF"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "", res.Language)
}

func TestTranscribeFFmpegFailure(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args []string) (commandResult, error) {
		return commandResult{ExitCode: 1, Stderr: "ffmpeg version x\ninput.wav: Invalid data found"}, errors.New("exit status 1")
	}}

	tr := newTestTranscriber(t, runner, "")
	_, err := tr.Transcribe(context.Background(), []byte("junk"), "audio/wav")

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "preprocessing", cmdErr.Stage)
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.Equal(t, "preprocessing: ffmpeg exited with 1: input.wav: Invalid data found", err.Error())
	assert.Equal(t, []string{"ffmpeg"}, runner.calls)
}

func TestTranscribeMissingTranscript(t *testing.T) {
	runner := &fakeRunner{run: func(string, []string) (commandResult, error) { return commandResult{}, nil }}

	tr := newTestTranscriber(t, runner, "")
	_, err := tr.Transcribe(context.Background(), []byte("RIFF"), "audio/wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading transcript")
}

func TestTranscribeEmptyAudio(t *testing.T) {
	tr := New(config.WhisperCPPConfig{ModelPath: t.TempDir()})
	_, err := tr.Transcribe(context.Background(), nil, "audio/wav")
	assert.Error(t, err)
}

func TestResolveModelPath(t *testing.T) {
	dir := t.TempDir()
	_, err := resolveModelPath(dir)
	assert.ErrorContains(t, err, "no .bin or .gguf")

	file := filepath.Join(dir, "ggml-small.gguf")
	require.NoError(t, os.WriteFile(file, []byte("m"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	got, err := resolveModelPath(dir)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	got, err = resolveModelPath(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	_, err = resolveModelPath("  ")
	assert.Error(t, err)
	_, err = resolveModelPath(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
