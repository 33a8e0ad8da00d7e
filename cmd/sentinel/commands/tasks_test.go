package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/moolen/sentinel/internal/config"
	"github.com/moolen/sentinel/internal/labeler"
)

func runTasksCmd(t *testing.T, c *cobra.Command, file string, args ...string) string {
	t.Helper()
	prev := tasksFile
	tasksFile = file
	t.Cleanup(func() { tasksFile = prev })

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, c.RunE(cmd, args))
	return buf.String()
}

func TestTasksList(t *testing.T) {
	out := runTasksCmd(t, tasksListCmd, writeTasksFile(t, reactTasks))

	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Regexp(t, `^NAME\s+KIND\s+SCHEDULE\s+DESCRIPTION$`, string(lines[0]))
	assert.Regexp(t, `^bluesky-labelers\s+bluesky-labelers\s+336h\s+Check subscribed`, string(lines[1]))
	assert.Regexp(t, `^react-19\s+prompt\s+24h\s+Watch for the React 19 release$`, string(lines[2]))
	assert.Regexp(t, `^template\s+prompt\s+-\s+`, string(lines[3]))
}

func TestTasksShow(t *testing.T) {
	out := runTasksCmd(t, tasksShowCmd, "", labeler.TaskName)

	var tc config.TaskConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &tc))
	back, err := tc.Task()
	require.NoError(t, err)
	assert.Equal(t, labeler.Task(), back)
}

func TestTasksShow_Unknown(t *testing.T) {
	var cmd cobra.Command
	cmd.SetOut(&bytes.Buffer{})
	err := tasksShowCmd.RunE(&cmd, []string{"nope"})

	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
