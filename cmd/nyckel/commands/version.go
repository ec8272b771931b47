package commands

import (
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			type versionInfo struct {
				Version string `json:"version" yaml:"version"`
				Commit  string `json:"commit"  yaml:"commit"`
				Built   string `json:"built"   yaml:"built"`
			}

			done, err := renderStructured(versionInfo{Version: version, Commit: commit, Built: date})
			if done {
				return err
			}

			return renderTable(
				[]string{"Property", "Value"},
				[][]string{
					{"Version", version},
					{"Commit", commit},
					{"Built", date},
				},
			)
		},
	}
}
