package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alvesdmateus/image-builder/internal/analyzer"
	"github.com/alvesdmateus/image-builder/internal/builder/dockerfile"
)

var initFlags struct {
	port  int
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Generate a starter Dockerfile for a project",
	Long: `Detect the project's language from its build files and write a starter
multi-stage Dockerfile. Existing Dockerfiles are left alone unless --force
is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		analysis, err := analyzer.Analyze(dir)
		if err != nil {
			return err
		}
		if analysis.Language == analyzer.LanguageUnknown {
			return fmt.Errorf("could not detect the project language in %s", dir)
		}

		path, err := dockerfile.Write(dir, analysis, initFlags.port, initFlags.force)
		if err != nil {
			return err
		}

		log.Info().
			Str("language", string(analysis.Language)).
			Str("path", path).
			Msg("Dockerfile generated")
		return nil
	},
}

func init() {
	initCmd.Flags().IntVar(&initFlags.port, "port", 0, "port the generated Dockerfile exposes (default 8080)")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "overwrite an existing Dockerfile")
}
