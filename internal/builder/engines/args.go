package engines

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/alvesdmateus/image-builder/internal/builder/buildtypes"
)

// artifactPath returns the path of an artifact file inside the run's temp
// directory, creating the directory on first use. The build tools write their
// iid and metadata files to these paths without creating parent directories,
// so the directory must exist before the build command runs.
func artifactPath(defaults *buildtypes.DefaultContext, name string) string {
	if err := os.MkdirAll(defaults.TempDir, 0755); err != nil {
		log.Warn().Err(err).Str("tempDir", defaults.TempDir).Msg("Failed to create temp directory")
	}
	return filepath.Join(defaults.TempDir, name)
}

// appendSortedKV appends one flag per map entry as "key=value", in sorted key
// order so argument lists stay deterministic.
func appendSortedKV(args []string, flag string, kv map[string]string) []string {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, flag, k+"="+kv[k])
	}
	return args
}

// appendEngineOptions appends engine-specific passthrough options as long
// flags, in sorted key order. A value-less option becomes a bare flag.
func appendEngineOptions(args []string, opts map[string]string) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if opts[k] == "" {
			args = append(args, "--"+k)
			continue
		}
		args = append(args, "--"+k+"="+opts[k])
	}
	return args
}
