package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/splatpack/internal/config"
	"github.com/Faultbox/splatpack/pkg/serialize"
	"github.com/Faultbox/splatpack/pkg/sink"
	"github.com/Faultbox/splatpack/pkg/splat"
	"github.com/Faultbox/splatpack/pkg/viewer"
)

// orbitTrack names the generated camera animation.
const orbitTrack = "orbit"

// exportAll writes every configured output concurrently and returns the
// paths written, in configuration order. Outputs that end up empty are
// removed and left out.
func exportAll(ctx context.Context, cfg *config.Config, cols []splat.Collection, log *zap.Logger) ([]string, error) {
	outputs, err := cfg.Outputs()
	if err != nil {
		return nil, err
	}

	var pkg viewer.Package
	for _, o := range outputs {
		if o.IsPackage {
			if pkg, err = viewerPackage(cfg); err != nil {
				return nil, err
			}
			break
		}
	}

	paths := make([]string, len(outputs))
	g, ctx := errgroup.WithContext(ctx)
	for i, o := range outputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(cfg.Output.Dir, cfg.Output.Basename+o.Extension())
			olog := log.With(zap.String("output", o.Name), zap.String("path", path))
			opts := cfg.Options(olog)

			start := time.Now()
			written, err := exportOne(path, func(s sink.Sink) error {
				if o.IsPackage {
					p := pkg
					p.Type = o.Package
					return viewer.Write(s, p, cols, opts)
				}
				return serialize.Export(s, o.Format, cols, opts)
			})
			if err != nil {
				return fmt.Errorf("%s: %w", o.Name, err)
			}
			if written == 0 {
				olog.Warn("nothing written, output removed")
				return nil
			}
			olog.Info("exported", zap.Int64("bytes", written), zap.Duration("took", time.Since(start)))
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	written := paths[:0]
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, nil
}

// exportOne creates path, runs encode against it and returns the file size.
// Empty files are deleted.
func exportOne(path string, encode func(sink.Sink) error) (size int64, err error) {
	f, err := sink.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			return
		}
		info, serr := os.Stat(path)
		if serr != nil {
			err = serr
			return
		}
		if size = info.Size(); size == 0 {
			err = os.Remove(path)
		}
	}()
	return 0, encode(f)
}

// viewerPackage assembles the package settings and assets shared by the
// html and zip outputs.
func viewerPackage(cfg *config.Config) (viewer.Package, error) {
	store := viewer.NewStore()
	if cfg.Viewer.AssetDir != "" {
		if err := store.AddDir(cfg.Viewer.AssetDir); err != nil {
			return viewer.Package{}, err
		}
	}
	assets, err := store.Assets()
	if err != nil {
		return viewer.Package{}, err
	}

	settings := cfg.Viewer.Settings
	settings.AnimTracks = append([]viewer.AnimTrack(nil), settings.AnimTracks...)
	if cfg.Viewer.Orbit {
		if _, ok := settings.Track(orbitTrack); !ok {
			settings.AnimTracks = append(settings.AnimTracks, viewer.OrbitTrack(orbitTrack, settings.Camera, 10, 5))
		}
		settings.Camera.StartAnim = viewer.StartAnimTrack
		settings.Camera.AnimTrack = orbitTrack
	}

	return viewer.Package{
		Settings: settings,
		Assets:   assets,
		Modified: time.Now(),
	}, nil
}
