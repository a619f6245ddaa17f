package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/MeKo-Tech/noisewarp/internal/grid"
	"github.com/MeKo-Tech/noisewarp/internal/imageio"
	"github.com/MeKo-Tech/noisewarp/internal/noise"
	"github.com/MeKo-Tech/noisewarp/internal/warp"
	"github.com/MeKo-Tech/noisewarp/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var distortCmd = &cobra.Command{
	Use:   "distort [flags] IMAGE...",
	Short: "Warp images with a noise field",
	Long: `Displace every pixel of each input image by a noise-driven offset.

Each output pixel (x, y) takes the source pixel at (x+s, y+s), where
s = round(field(x, y) * amount) and coordinates clamp to the image border.
All images of the same size share one field.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDistort,
}

func init() {
	rootCmd.AddCommand(distortCmd)

	def := warp.DefaultParams()

	distortCmd.Flags().Float64("amount", def.Amount, "Displacement in pixels per unit of field value")
	distortCmd.Flags().String("rounding", def.Rounding.String(), "Shift rounding: half-even or half-away")
	distortCmd.Flags().String("output-dir", "./warped", "Output directory for warped images")
	distortCmd.Flags().String("suffix", "_warped", "Suffix appended to output file names")
	distortCmd.Flags().String("resize", "", "Resize inputs to WxH before warping (e.g. 512x512)")
	distortCmd.Flags().Float64("smooth", 0, "Gaussian blur sigma applied to inputs before warping (0 disables)")
	distortCmd.Flags().IntP("jobs", "j", 0, "Number of images processed concurrently (default: number of CPUs)")
	distortCmd.Flags().Bool("progress", true, "Show progress bar")
	distortCmd.Flags().Bool("force", false, "Overwrite outputs that already exist")
	distortCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	addNoiseFlags(distortCmd, "distort")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"distort.amount", "amount"},
		{"distort.rounding", "rounding"},
		{"distort.output_dir", "output-dir"},
		{"distort.suffix", "suffix"},
		{"distort.resize", "resize"},
		{"distort.smooth", "smooth"},
		{"distort.jobs", "jobs"},
		{"distort.progress", "progress"},
		{"distort.force", "force"},
		{"distort.png_compression", "png-compression"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, distortCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runDistort(cmd *cobra.Command, args []string) error {
	amount := viper.GetFloat64("distort.amount")
	roundingName := viper.GetString("distort.rounding")
	outputDir := viper.GetString("distort.output_dir")
	suffix := viper.GetString("distort.suffix")
	resize := viper.GetString("distort.resize")
	smooth := viper.GetFloat64("distort.smooth")
	jobCount := viper.GetInt("distort.jobs")
	showProgress := viper.GetBool("distort.progress")
	force := viper.GetBool("distort.force")
	pngCompression := viper.GetString("distort.png_compression")

	if logger == nil {
		initLogging()
	}

	rounding, err := warp.ParseRounding(roundingName)
	if err != nil {
		return err
	}
	params, seed, err := noiseParamsFromViper("distort")
	if err != nil {
		return err
	}
	if smooth < 0 {
		return fmt.Errorf("smooth must be >= 0, got %v", smooth)
	}

	var fit *grid.Dims
	if resize != "" {
		w, h, err := parseSize(resize)
		if err != nil {
			return err
		}
		fit = &grid.Dims{Width: w, Height: h}
	}

	encode := imageio.DefaultEncodeOptions()
	if encode.PNGCompression, err = imageio.ParsePNGCompression(pngCompression); err != nil {
		return err
	}

	if jobCount <= 0 {
		jobCount = runtime.NumCPU()
	}

	exec, release, err := newExecutor()
	if err != nil {
		return err
	}
	defer release()

	d := &distorter{
		fields:    newFieldCache(noise.NewGenerator(noise.NewPerlin(seed), exec, logger), params),
		resampler: warp.NewResampler(exec, rounding, logger),
		amount:    amount,
		fit:       fit,
		smooth:    float32(smooth),
		force:     force,
		encode:    encode,
	}

	jobs, err := buildJobs(args, outputDir, suffix)
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := worker.NewProgress(len(jobs), "images", showProgress)
	pool := worker.New(worker.Config{
		Workers:    jobCount,
		Processor:  d,
		OnProgress: progress.Callback(),
		Logger:     logger,
	})

	logger.Info("Warping images",
		"count", len(jobs),
		"jobs", jobCount,
		"amount", amount,
		"rounding", rounding.String(),
		"octaves", params.Octaves,
		"seed", seed,
	)
	results := pool.Run(ctx, jobs)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Image warp failed", "input", r.Job.Input, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		return fmt.Errorf("%d of %d images failed to warp", failedCount, len(jobs))
	}
	return nil
}

// buildJobs maps every input to its output path. Two inputs that would
// write the same file, or an output that would replace its own input, are
// rejected before any work starts.
func buildJobs(inputs []string, outputDir, suffix string) ([]worker.Job, error) {
	jobs := make([]worker.Job, 0, len(inputs))
	owners := make(map[string]string, len(inputs))
	for _, input := range inputs {
		output := outputPath(input, outputDir, suffix)
		key := filepath.Clean(output)
		if key == filepath.Clean(input) {
			return nil, fmt.Errorf("output %s would overwrite its input; set --output-dir or --suffix", output)
		}
		if prev, ok := owners[key]; ok {
			return nil, fmt.Errorf("inputs %s and %s both map to output %s; warp them in separate runs or rename one", prev, input, output)
		}
		owners[key] = input
		jobs = append(jobs, worker.Job{Input: input, Output: output})
	}
	return jobs, nil
}

// distorter warps one image file per job.
type distorter struct {
	fields    *fieldCache
	resampler *warp.Resampler
	fit       *grid.Dims
	encode    imageio.EncodeOptions
	amount    float64
	smooth    float32
	force     bool
}

func (d *distorter) Process(ctx context.Context, job worker.Job) (string, error) {
	if !d.force {
		if _, err := os.Stat(job.Output); err == nil {
			logger.Debug("Output exists, skipping", "input", job.Input, "output", job.Output)
			return job.Output, nil
		}
	}

	img, format, err := imageio.Load(job.Input)
	if err != nil {
		return "", err
	}
	img = imageio.Smooth(img, d.smooth)
	if d.fit != nil {
		if img, err = imageio.Fit(img, d.fit.Width, d.fit.Height); err != nil {
			return "", err
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, dims := imageio.ToRaster(img)
	field, err := d.fields.get(dims)
	if err != nil {
		return "", err
	}

	warped, err := d.resampler.Distort(field, src, dims.Width, dims.Height, d.amount)
	if err != nil {
		return "", fmt.Errorf("failed to warp %s: %w", job.Input, err)
	}

	out, err := imageio.FromRaster(warped, dims.Width, dims.Height)
	if err != nil {
		return "", err
	}
	if err := imageio.Save(job.Output, out, d.encode); err != nil {
		return "", err
	}

	logger.Debug("Image warped",
		"input", job.Input,
		"format", format,
		"dims", dims.String(),
		"output", job.Output,
	)
	return job.Output, nil
}

// fieldCache generates one field per distinct image size.
type fieldCache struct {
	gen     *noise.Generator
	entries map[grid.Dims]*fieldEntry
	params  noise.Params
	mu      sync.Mutex
}

type fieldEntry struct {
	err   error
	field noise.Field
	once  sync.Once
}

func newFieldCache(gen *noise.Generator, params noise.Params) *fieldCache {
	return &fieldCache{
		gen:     gen,
		params:  params,
		entries: make(map[grid.Dims]*fieldEntry),
	}
}

func (c *fieldCache) get(dims grid.Dims) (noise.Field, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	entry, ok := c.entries[dims]
	if !ok {
		entry = &fieldEntry{}
		c.entries[dims] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.field, entry.err = c.gen.Field(dims.Width, dims.Height, c.params)
	})
	if entry.err != nil {
		return nil, fmt.Errorf("field for %s: %w", dims, entry.err)
	}
	return entry.field, nil
}
