package convicon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/convicon/artifact"
	"github.com/bodgit/convicon/compress"
	"github.com/bodgit/convicon/raster"
)

const defaultWorkers = 10

// ScanOptions controls how each image found by Scan is converted.
type ScanOptions struct {
	Format      artifact.Format
	Compression compress.Mode

	// Workers is the number of concurrent conversions, 10 if unset
	Workers int
}

// output returns the artifact file name for an image
func output(file string, format artifact.Format) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + format.Ext()
}

func (c *Converter) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() || !raster.Supported(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Converter) conversionWorker(ctx context.Context, in <-chan string, opts ScanOptions) (<-chan error, error) {
	// Dots from concurrent conversions would be interleaved
	worker := &Converter{
		logger: c.logger,
	}

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			icon := Icon{
				Image:       file,
				Output:      output(file, opts.Format),
				Format:      opts.Format,
				Compression: opts.Compression,
			}

			if err := worker.Convert(icon); err != nil {
				errc <- err
				return
			}

			c.logger.Printf("Converted \"%s\" to \"%s\"\n", icon.Image, icon.Output)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the directory tree rooted at path and converts every image
// it finds into an artifact alongside it, named after the image with the
// extension of the chosen format. Hidden files and directories are
// skipped. Scan stops at the first failed conversion.
func (c *Converter) Scan(path string, opts ScanOptions) error {
	if err := (Icon{Output: path, Format: opts.Format, Compression: opts.Compression}).validate(); err != nil {
		return err
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findImages(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < workers; i++ {
		errc, err := c.conversionWorker(ctx, files, opts)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
