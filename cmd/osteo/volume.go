package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/osteo/pkg/volume"
)

// loadVolume reads a native volume file, or an SLC scan by extension.
func loadVolume(path string) (*volume.Grid, error) {
	if strings.EqualFold(filepath.Ext(path), ".slc") {
		return volume.LoadSLC(path)
	}
	return volume.Load(path)
}

// cmdPhantom writes a spherical density blob: samples inside the sphere
// take the -inside density, the rest -outside.
func cmdPhantom(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("phantom", flag.ContinueOnError)
	out := fs.String("out", "phantom.vol", "output volume file")
	dims := fs.Int("dims", 64, "samples along each axis")
	size := fs.Float64("size", 100, "edge length of the sampled cube")
	radius := fs.Float64("radius", 30, "sphere radius")
	inside := fs.Float64("inside", 100, "density inside the sphere")
	outside := fs.Float64("outside", 0, "density outside the sphere")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := sdf.Sphere3D(*radius)
	if err != nil {
		return fmt.Errorf("sphere: %w", err)
	}
	h := *size / 2
	bounds := sdf.Box3{Min: v3.Vec{X: -h, Y: -h, Z: -h}, Max: v3.Vec{X: h, Y: h, Z: h}}
	g, err := volume.FromSDF(s, [3]int{*dims, *dims, *dims}, bounds, *inside, *outside)
	if err != nil {
		return err
	}
	if err := volume.Save(*out, g); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s: %dx%dx%d samples\n", *out, g.Dims[0], g.Dims[1], g.Dims[2])
	return nil
}

// cmdInfo prints the shape and statistics of a volume.
func cmdInfo(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	path := fs.String("volume", "", "volume file (.vol or .slc)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-volume is required")
	}
	g, err := loadVolume(*path)
	if err != nil {
		return err
	}
	st := g.Stats()
	b := g.Bounds()
	fmt.Fprintf(stdout, "dims     %d x %d x %d\n", g.Dims[0], g.Dims[1], g.Dims[2])
	fmt.Fprintf(stdout, "spacing  %g %g %g\n", g.Spacing.X, g.Spacing.Y, g.Spacing.Z)
	fmt.Fprintf(stdout, "bounds   (%g %g %g) - (%g %g %g)\n", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Fprintf(stdout, "samples  %d\n", st.Count)
	fmt.Fprintf(stdout, "range    %g .. %g\n", st.Min, st.Max)
	fmt.Fprintf(stdout, "mean     %g (sd %g)\n", st.Mean, st.StdDev)
	return nil
}
