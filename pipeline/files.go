package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grouting/pixelate/images"
	"github.com/pkg/errors"
)

// OutputPrefix is prepended to output file names unless the input is overwritten.
const OutputPrefix = "pixelated_"

// CollectImageFiles lists the image files of a directory whose extension has a codec.
//
// Arguments:
// - dir: Directory path containing image files.
// - recursive: Whether to descend into sub-directories.
//
// Returns:
// - []string: The image file paths, sorted.
// - error: Error if the directory cannot be read.
func CollectImageFiles(dir string, recursive bool) ([]string, error) {
	var paths []string

	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.Wrap(err, "could not read directory")
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if images.IsSupportedPath(entry.Name()) {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
	} else {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && images.IsSupportedPath(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not read directory")
		}
	}

	sort.Strings(paths)

	return paths, nil
}

// OutputPath returns where the pixelated version of input is written.
//
// The file keeps its name when overwrite is set and gets OutputPrefix
// otherwise. It lands next to the input unless outputDir is set, in which case
// the input's location relative to root is recreated under outputDir.
//
// Arguments:
// - root: The directory the run started from.
// - input: The input image path.
// - outputDir: Optional output directory.
// - overwrite: Whether to keep the input file name.
//
// Returns:
// - string: The output file path.
func OutputPath(root, input, outputDir string, overwrite bool) string {
	dir := filepath.Dir(input)
	if outputDir != "" {
		rel, err := filepath.Rel(root, dir)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = "."
		}
		dir = filepath.Join(outputDir, rel)
	}

	name := filepath.Base(input)
	if !overwrite {
		name = OutputPrefix + name
	}

	return filepath.Join(dir, name)
}

// isOutputName reports whether a file looks like the product of an earlier run.
func isOutputName(path string) bool {
	return strings.HasPrefix(filepath.Base(path), OutputPrefix)
}
