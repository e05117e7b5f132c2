package weights

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AutoSentinel asks the resolver to pick the newest .onnx file next to the
// executable instead of a named path.
const AutoSentinel = "AUTO"

const modelExtension = ".onnx"

// Resolve locates a weights file for the given spec.
//
// Tries the following in order:
//   - absolute path: used directly
//   - as given, relative to the working directory
//   - relative to the executable's directory
//   - the sentinel AUTO: newest .onnx in the executable's directory
func Resolve(spec string) (string, error) {
	return ResolveIn(spec, ExecDir())
}

// ResolveIn is Resolve with an explicit secondary search directory.
func ResolveIn(spec, baseDir string) (string, error) {
	if strings.EqualFold(spec, AutoSentinel) {
		return newestModel(baseDir)
	}

	candidates := []string{spec}
	if !filepath.IsAbs(spec) {
		candidates = append(candidates, filepath.Join(baseDir, spec))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not find weights file for spec %q, tried: %s",
		spec, strings.Join(candidates, ", "))
}

// newestModel returns the most recently modified .onnx file in dir.
func newestModel(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("AUTO could not read directory %s: %w", dir, err)
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), modelExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime().UnixNano()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("AUTO could not find any %s files in %s", modelExtension, dir)
	}
	return newest, nil
}

// ExecDir returns the directory holding the running executable, falling back
// to the working directory when it cannot be determined.
func ExecDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(exe)
}
