package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBashCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []BashCommand
	}{
		{
			name:    "simple command",
			command: "ls -la",
			want:    []BashCommand{{Name: "ls", Args: []string{"-la"}}},
		},
		{
			name:    "subcommand detected",
			command: "git commit -m 'fix bug'",
			want: []BashCommand{{
				Name:       "git",
				Args:       []string{"commit", "-m", "fix bug"},
				Subcommand: "commit",
			}},
		},
		{
			name:    "pipeline yields every command",
			command: "cat file.txt | grep error | wc -l",
			want: []BashCommand{
				{Name: "cat", Args: []string{"file.txt"}, Subcommand: "file.txt"},
				{Name: "grep", Args: []string{"error"}, Subcommand: "error"},
				{Name: "wc", Args: []string{"-l"}},
			},
		},
		{
			name:    "chained commands",
			command: "mkdir build && cd build",
			want: []BashCommand{
				{Name: "mkdir", Args: []string{"build"}, Subcommand: "build"},
				{Name: "cd", Args: []string{"build"}, Subcommand: "build"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBashCommand(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBashCommandDynamicParts(t *testing.T) {
	cmds, err := ParseBashCommand("rm $FILE $(find . -name x)")
	require.NoError(t, err)
	require.NotEmpty(t, cmds)

	// Expansions become placeholders so they cannot satisfy literal patterns.
	assert.Equal(t, "rm", cmds[0].Name)
	assert.Contains(t, cmds[0].Args, "$FILE")
}

func TestParseBashCommandInvalid(t *testing.T) {
	_, err := ParseBashCommand("if then fi (")
	assert.Error(t, err)
}

func TestBuildPatterns(t *testing.T) {
	cmds := []BashCommand{
		{Name: "git", Subcommand: "commit"},
		{Name: "git", Subcommand: "commit"},
		{Name: "ls"},
		{Name: "cd", Subcommand: "build"},
	}

	patterns := BuildPatterns(cmds)
	assert.Equal(t, []string{"git commit *", "ls *"}, patterns)
}

func TestExtractPaths(t *testing.T) {
	cmd := BashCommand{Name: "cp", Args: []string{"-r", "src/", "dst/"}}
	assert.Equal(t, []string{"src/", "dst/"}, ExtractPaths(cmd))

	chmod := BashCommand{Name: "chmod", Args: []string{"755", "script.sh"}}
	assert.Equal(t, []string{"script.sh"}, ExtractPaths(chmod))

	symbolic := BashCommand{Name: "chmod", Args: []string{"u+x", "script.sh"}}
	assert.Equal(t, []string{"script.sh"}, ExtractPaths(symbolic))
}

func TestIsWithinDir(t *testing.T) {
	assert.True(t, IsWithinDir("/work/project/file.go", "/work/project"))
	assert.True(t, IsWithinDir("/work/project", "/work/project"))
	assert.False(t, IsWithinDir("/work/other/file.go", "/work/project"))
	assert.False(t, IsWithinDir("/work/project/../secret", "/work/project"))
}
