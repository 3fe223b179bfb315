package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/defectset/internal/contract"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd prints the resolved configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	Long: `Print the configuration after merging defaults, the config file, environment
variables and flags. Secrets (tokens and connection strings) are never printed.

The output can be saved as .defectset.yaml and edited.

Examples:
  defectset config -p BOOKKEEPER --releases releases.csv > .defectset.yaml`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := resolveInput(); err != nil {
			return err
		}
		return writeConfigYAML(os.Stdout, input)
	},
}

// writeConfigYAML encodes the raw input with two-space indentation.
func writeConfigYAML(w io.Writer, in *contract.ConfigRawInput) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}
	return enc.Close()
}
