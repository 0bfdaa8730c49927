package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/voxmesh/pkg/hull"
	"github.com/chazu/voxmesh/pkg/logging"
)

// maxWriters bounds the atlas pages encoded at once.
const maxWriters = 4

// Run builds the export and writes it to dir. File failures are reported to
// the ErrorHandler and listed in Result.Failed; the returned error is only
// set when the export could not be built or was cancelled.
func (e *Exporter) Run(ctx context.Context, dir string, snaps []*hull.Snapshot) (*Result, error) {
	log := logging.Logger()
	log.Info("export started", "dir", dir, "layers", len(snaps), "strategy", e.opts.Strategy)
	res, err := e.Build(ctx, snaps)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create %s: %w", dir, err)
	}

	total := len(res.Pages) + 1
	if e.opts.STL {
		total++
	}
	var done atomic.Int32
	step := func() {
		n := done.Add(1)
		e.mu.Lock()
		e.progress.Report(int(n), total, "write")
		e.mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWriters)
	for _, pg := range res.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, e.PageName(pg.ID))
			e.writeFile(res, path, func(w io.Writer) error {
				return png.Encode(w, pg.Image)
			})
			step()
			return nil
		})
	}
	g.Go(func() error {
		path := filepath.Join(dir, e.DocumentName())
		e.writeFile(res, path, func(w io.Writer) error {
			if !e.opts.Compress {
				return res.Document.Encode(w)
			}
			zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
			if err != nil {
				return err
			}
			if err := res.Document.Encode(zw); err != nil {
				zw.Close()
				return err
			}
			return zw.Close()
		})
		step()
		return nil
	})
	if e.opts.STL {
		g.Go(func() error {
			path := filepath.Join(dir, e.STLName())
			if err := saveSTL(path, res.Triangles); err != nil {
				e.fail(res, path, err)
			} else {
				e.wrote(res, path)
			}
			step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	sort.Strings(res.Files)
	sort.Strings(res.Failed)
	log.Info("export finished",
		"files", len(res.Files),
		"failed", len(res.Failed),
		"triangles", res.Document.TriangleCount(),
		"vertices", res.Document.VertexCount())
	return res, nil
}

// writeFile writes one output file through a buffer. On failure the
// partial file is removed and the error handed to the ErrorHandler.
func (e *Exporter) writeFile(res *Result, path string, write func(io.Writer) error) {
	err := func() (err error) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		bw := bufio.NewWriter(f)
		if err := write(bw); err != nil {
			return err
		}
		return bw.Flush()
	}()
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		e.fail(res, path, fmt.Errorf("write %s: %w", filepath.Base(path), err))
		return
	}
	e.wrote(res, path)
	if fi, err := os.Stat(path); err == nil {
		logging.Logger().Debug("export file written", "path", path, "size", humanize.Bytes(uint64(fi.Size())))
	}
}
