// Package colmap builds COLMAP command lines for sparse reconstruction:
// feature extraction, feature matching, incremental mapping, and conversion
// of each resulting model to the TXT format Brush reads.
package colmap

import (
	"github.com/backmassage/splatmaster/internal/config"
)

// Tool is the executable name looked up on PATH.
const Tool = "colmap"

// Options tunes the generated commands.
type Options struct {
	Matcher config.Matcher
	UseGPU  bool
}

// Step is one COLMAP subcommand invocation.
type Step struct {
	Name string // Human-readable label for logs.
	Args []string
}

// FeatureExtractor detects SIFT features. All frames share one camera since
// they come from a single video.
func FeatureExtractor(db, images string, opts Options) Step {
	args := []string{
		"feature_extractor",
		"--database_path", db,
		"--image_path", images,
		"--ImageReader.single_camera", "1",
	}
	if opts.UseGPU {
		args = append(args, "--SiftExtraction.use_gpu", "1")
	}
	return Step{Name: "Extracting features", Args: args}
}

// FeatureMatcher matches features with the configured strategy.
// Sequential matching only compares neighbouring frames, which suits video
// and is much faster than the exhaustive pairwise search.
func FeatureMatcher(db string, opts Options) Step {
	sub := "exhaustive_matcher"
	if opts.Matcher == config.MatcherSequential {
		sub = "sequential_matcher"
	}
	args := []string{sub, "--database_path", db}
	if opts.UseGPU {
		args = append(args, "--SiftMatching.use_gpu", "1")
	}
	return Step{Name: "Matching features (" + string(opts.Matcher) + ")", Args: args}
}

// Mapper runs incremental SfM, writing one model directory per connected
// component under sparse.
func Mapper(db, images, sparse string) Step {
	return Step{
		Name: "Running sparse reconstruction",
		Args: []string{
			"mapper",
			"--database_path", db,
			"--image_path", images,
			"--output_path", sparse,
		},
	}
}

// ModelConverter rewrites the binary model in dir as TXT, in place.
func ModelConverter(dir string) Step {
	return Step{
		Name: "Converting model to text",
		Args: []string{
			"model_converter",
			"--input_path", dir,
			"--output_path", dir,
			"--output_type", "TXT",
		},
	}
}

// Reconstruction returns the three dependent steps run before model
// conversion, in order.
func Reconstruction(db, images, sparse string, opts Options) []Step {
	return []Step{
		FeatureExtractor(db, images, opts),
		FeatureMatcher(db, opts),
		Mapper(db, images, sparse),
	}
}
