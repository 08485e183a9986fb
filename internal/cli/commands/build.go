package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alvesdmateus/image-builder/internal/builder"
	"github.com/alvesdmateus/image-builder/internal/builder/scanner"
	"github.com/alvesdmateus/image-builder/internal/executil"
	"github.com/alvesdmateus/image-builder/internal/metadata"
	"github.com/alvesdmateus/image-builder/internal/report"
	"github.com/alvesdmateus/image-builder/internal/runcontext"
)

var buildFlags struct {
	file          string
	contextPath   string
	tags          []string
	labels        []string
	buildArgs     []string
	platforms     []string
	outputs       []string
	engineOptions []string
	engine        string

	genMetadata   bool
	metadataRules string

	scan       bool
	scanFailOn string

	reportFile string
	dryRun     bool
}

var buildCmd = &cobra.Command{
	Use:   "build [context]",
	Short: "Build a container image",
	Long: `Build a container image with the selected engine. The build context
defaults to the project root; the Dockerfile defaults to the project's
Dockerfile. Outputs (image id, digest, metadata) are logged and optionally
appended to a key=value report file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}

		runCtx, err := runcontext.Load(dir)
		if err != nil {
			return err
		}

		buildArgs, err := parseKVPairs(buildFlags.buildArgs)
		if err != nil {
			return fmt.Errorf("invalid --build-arg: %w", err)
		}
		engineOpts, err := parseKVPairs(buildFlags.engineOptions)
		if err != nil {
			return fmt.Errorf("invalid --engine-opt: %w", err)
		}

		var reporter report.Reporter = report.NewLogReporter()
		if buildFlags.reportFile != "" {
			reporter = report.NewMultiReporter(reporter, report.NewFileReporter(buildFlags.reportFile))
		}

		service := builder.NewService(builder.ServiceConfig{
			RunContext: runCtx,
			DryRun:     buildFlags.dryRun,
		}, nil, reporter)

		opts := &builder.Options{
			Dockerfile:    buildFlags.file,
			ContextPath:   buildFlags.contextPath,
			Tags:          buildFlags.tags,
			Labels:        buildFlags.labels,
			BuildArgs:     buildArgs,
			Platforms:     buildFlags.platforms,
			Outputs:       buildFlags.outputs,
			EngineOptions: engineOpts,
			Engine:        buildFlags.engine,
			Metadata: metadata.Config{
				Enabled:   buildFlags.genMetadata,
				RulesFile: buildFlags.metadataRules,
			},
		}

		outputs, err := service.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		log.Info().
			Str("imageID", outputs.ImageID).
			Str("digest", outputs.Digest).
			Msg("Build succeeded")

		if buildFlags.scan && !buildFlags.dryRun {
			if err := scanImage(cmd.Context(), outputs, buildFlags.tags); err != nil {
				return err
			}
		}
		return nil
	},
}

// scanImage runs the vulnerability gate against the built image, preferring
// a tag over the raw image id so trivy resolves it from the local store.
func scanImage(ctx context.Context, outputs *builder.BuildOutputs, tags []string) error {
	imageRef := outputs.ImageID
	if len(tags) > 0 {
		imageRef = tags[0]
	}
	if imageRef == "" {
		return fmt.Errorf("no image reference available to scan")
	}

	cfg := scanner.DefaultConfig()
	cfg.Enabled = true
	if buildFlags.scanFailOn != "" {
		cfg.FailOn = buildFlags.scanFailOn
	}

	result, err := scanner.New(executil.NewRunner(), cfg).Scan(ctx, imageRef)
	if result != nil {
		fmt.Println(result.Summary())
	}
	return err
}

// parseKVPairs parses repeated KEY=VALUE flags into a map
func parseKVPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	kv := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", pair)
		}
		kv[key] = value
	}
	return kv, nil
}

func init() {
	buildCmd.Flags().StringVarP(&buildFlags.file, "file", "f", "", "path to the Dockerfile (default: <project root>/Dockerfile)")
	buildCmd.Flags().StringVar(&buildFlags.contextPath, "context", "", "build context path (default: project root)")
	buildCmd.Flags().StringArrayVarP(&buildFlags.tags, "tag", "t", nil, "image tag (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildFlags.labels, "label", nil, "image label as KEY=VALUE (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildFlags.buildArgs, "build-arg", nil, "build argument as KEY=VALUE (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildFlags.platforms, "platform", nil, "target platform (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildFlags.outputs, "output", nil, "output target (repeatable)")
	buildCmd.Flags().StringArrayVar(&buildFlags.engineOptions, "engine-opt", nil, "engine-specific option as KEY=VALUE (repeatable)")
	buildCmd.Flags().StringVar(&buildFlags.engine, "engine", "", "build engine: docker or buildx (default: project override or docker)")
	buildCmd.Flags().BoolVar(&buildFlags.genMetadata, "metadata", false, "generate tags and labels from project metadata")
	buildCmd.Flags().StringVar(&buildFlags.metadataRules, "metadata-rules", "", "path to a yaml metadata rules file")
	buildCmd.Flags().BoolVar(&buildFlags.scan, "scan", false, "scan the built image for vulnerabilities with trivy")
	buildCmd.Flags().StringVar(&buildFlags.scanFailOn, "scan-fail-on", "", "minimum severity that fails the scan gate (critical, high, medium, low)")
	buildCmd.Flags().StringVar(&buildFlags.reportFile, "report-file", "", "append build outputs as key=value lines to this file")
	buildCmd.Flags().BoolVar(&buildFlags.dryRun, "dry-run", false, "print the build command without executing it")
}
