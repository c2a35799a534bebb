package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/swatch/cmd/swatch/commands"
	"go.trai.ch/swatch/internal/app"
	"go.trai.ch/swatch/internal/build"
)

type mockApp struct {
	buildCalls []app.BuildOptions
	cleanCalls []app.CleanOptions
	err        error
}

func (m *mockApp) Build(_ context.Context, _ string, opts app.BuildOptions) error {
	m.buildCalls = append(m.buildCalls, opts)
	return m.err
}

func (m *mockApp) Clean(_ context.Context, _ string, opts app.CleanOptions) error {
	m.cleanCalls = append(m.cleanCalls, opts)
	return m.err
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	cli.SetArgs(args)
	out := new(bytes.Buffer)
	cli.SetOutput(out, out)
	err := cli.Execute(t.Context())
	return out.String(), err
}

func TestCommands_Root(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m)
	require.NoError(t, err)
	require.Len(t, m.buildCalls, 1)
	assert.Equal(t, app.BuildOptions{}, m.buildCalls[0])
}

func TestCommands_Root_Flags(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "--dev", "--no-cache", "--no-clean", "-j", "3", "--config", "site/swatch.yaml")
	require.NoError(t, err)
	require.Len(t, m.buildCalls, 1)
	assert.Equal(t, app.BuildOptions{
		ConfigPath:  "site/swatch.yaml",
		Dev:         true,
		NoCache:     true,
		NoClean:     true,
		Parallelism: 3,
	}, m.buildCalls[0])
}

func TestCommands_Root_RejectsArguments(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "styles")
	require.Error(t, err)
	assert.Empty(t, m.buildCalls)
}

func TestCommands_Build(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "build", "styles", "images", "-n")
	require.NoError(t, err)
	require.Len(t, m.buildCalls, 1)
	assert.Equal(t, []string{"styles", "images"}, m.buildCalls[0].Tasks)
	assert.True(t, m.buildCalls[0].NoCache)
}

func TestCommands_Test(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "test", "--no-cache")
	require.NoError(t, err)
	require.Len(t, m.buildCalls, 1)
	assert.Equal(t, []string{"test"}, m.buildCalls[0].Tasks)
	assert.True(t, m.buildCalls[0].NoCache)

	_, err = execute(t, m, "test", "styles")
	require.Error(t, err)
	assert.Len(t, m.buildCalls, 1)
}

func TestCommands_Build_Error(t *testing.T) {
	m := &mockApp{err: errors.New("simulated error")}
	_, err := execute(t, m, "build")
	require.ErrorContains(t, err, "simulated error")
}

func TestCommands_Clean(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "clean", "--cache", "-c", "swatch.yaml")
	require.NoError(t, err)
	require.Len(t, m.cleanCalls, 1)
	assert.Equal(t, app.CleanOptions{ConfigPath: "swatch.yaml", Cache: true}, m.cleanCalls[0])
	assert.Empty(t, m.buildCalls)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "swatch version "+build.Version+" (commit: "+build.Commit+", date: "+build.Date+")\n", out)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "swatch version "+build.Version)
}
