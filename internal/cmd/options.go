package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/noisewarp/internal/imageio"
	"github.com/MeKo-Tech/noisewarp/internal/noise"
	"github.com/MeKo-Tech/noisewarp/internal/parallel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// addNoiseFlags registers the noise knobs on cmd and binds them under section.
func addNoiseFlags(cmd *cobra.Command, section string) {
	def := noise.DefaultParams()

	cmd.Flags().Float64("scale", def.Scale, "Domain span covered by the grid along each axis")
	cmd.Flags().Int("octaves", def.Octaves, "Number of noise layers (1 = plain Perlin)")
	cmd.Flags().Float64("lacunarity", def.Lacunarity, "Frequency multiplier between octaves")
	cmd.Flags().Float64("persistence", def.Persistence, "Amplitude multiplier between octaves")
	cmd.Flags().Bool("remove-bias", def.RemoveBias, "Center samples around zero before summing")
	cmd.Flags().Int64("seed", noise.DefaultSeed, "Deterministic seed for the Perlin source")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{section + ".scale", "scale"},
		{section + ".octaves", "octaves"},
		{section + ".lacunarity", "lacunarity"},
		{section + ".persistence", "persistence"},
		{section + ".remove_bias", "remove-bias"},
		{section + ".seed", "seed"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, cmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// noiseParamsFromViper reads the noise knobs bound by addNoiseFlags.
func noiseParamsFromViper(section string) (noise.Params, int64, error) {
	p := noise.Params{
		Scale:       viper.GetFloat64(section + ".scale"),
		Octaves:     viper.GetInt(section + ".octaves"),
		Lacunarity:  viper.GetFloat64(section + ".lacunarity"),
		Persistence: viper.GetFloat64(section + ".persistence"),
		RemoveBias:  viper.GetBool(section + ".remove_bias"),
	}
	if err := p.Validate(); err != nil {
		return noise.Params{}, 0, err
	}
	return p, viper.GetInt64(section + ".seed"), nil
}

// newExecutor builds the executor selected by the parallel.* keys. The
// returned release func must be called once the executor is no longer used.
func newExecutor() (parallel.Executor, func(), error) {
	workers := viper.GetInt("parallel.workers")
	chunkSize := viper.GetInt("parallel.chunk_size")
	if workers < 0 {
		return nil, nil, fmt.Errorf("workers must be >= 0, got %d", workers)
	}
	if chunkSize < 0 {
		return nil, nil, fmt.Errorf("chunk-size must be >= 0, got %d", chunkSize)
	}

	switch kind := strings.ToLower(viper.GetString("parallel.executor")); kind {
	case "", "chunked":
		return parallel.New(workers, chunkSize), func() {}, nil
	case "pool":
		pool := parallel.NewPool(workers, chunkSize)
		return pool, pool.Close, nil
	case "sequential":
		return parallel.Sequential{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("invalid executor %q: must be chunked, pool or sequential", kind)
	}
}

// parseSize parses "WxH" (e.g. "512x256").
func parseSize(s string) (width, height int, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q: expected WxH", s)
	}

	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: width and height must be positive", s)
	}
	return width, height, nil
}

// outputPath places the warped copy of input in dir, appending suffix to the
// base name. Inputs in formats that cannot be encoded are written as PNG.
func outputPath(input, dir, suffix string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if !imageio.SupportedOutput(strings.ToLower(ext)) {
		ext = ".png"
	}
	return filepath.Join(dir, base+suffix+ext)
}
