package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kuuzuki-ai/kuuzuki/internal/config"
	"github.com/kuuzuki-ai/kuuzuki/internal/permission"
	"github.com/kuuzuki-ai/kuuzuki/internal/security"
)

var (
	checkAgent string
	checkTool  string
	checkDir   string
)

var checkCmd = &cobra.Command{
	Use:   "check [command...]",
	Short: "Evaluate a command against security and permission rules",
	Long: `Run the security validator and permission engine over a bash command
(or a tool name with --tool) and print the decision without executing
anything. Useful for debugging permission configs.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkAgent, "agent", "", "Agent name whose permission overrides apply")
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "Check a tool name instead of a bash command")
	checkCmd.Flags().StringVar(&checkDir, "directory", "", "Working directory")
}

type checkOutput struct {
	Subject  string          `json:"subject"`
	Action   string          `json:"action"`
	Security security.Result `json:"security"`
	Patterns []string        `json:"patterns,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkTool == "" && len(args) == 0 {
		return fmt.Errorf("pass a bash command or --tool")
	}

	workDir, err := GetWorkDir(checkDir)
	if err != nil {
		return err
	}
	appConfig, err := config.Load(workDir)
	if err != nil {
		return err
	}

	check := permission.CheckInput{
		AgentName: checkAgent,
		Config:    appConfig.Permission,
		Env:       config.EnvPermissions(),
	}

	out := checkOutput{Security: security.Result{Allowed: true, RiskLevel: security.RiskLow}}

	if checkTool != "" {
		check.Type = permission.SubjectTool
		check.Pattern = checkTool
		out.Subject = checkTool
	} else {
		command := strings.Join(args, " ")
		check.Type = permission.SubjectBash
		check.Pattern = command
		out.Subject = "bash"
		out.Security = security.ValidateInput(command, "bash")
		if cmds, err := permission.ParseBashCommand(command); err == nil {
			out.Patterns = permission.BuildPatterns(cmds)
		}
	}

	if !out.Security.Allowed {
		// A security block is final; the permission engine never runs.
		out.Action = "deny"
	} else {
		out.Action = string(permission.Evaluate(check))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
