package volume

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// File layout (little-endian):
//
//	magic   [4]byte "OSVG"
//	version uint32  (1)
//	dims    [3]uint32
//	spacing [3]float64
//	origin  [3]float64
//	samples [nx*ny*nz]float32, x fastest
const (
	fileMagic   = "OSVG"
	fileVersion = 1

	// maxSamples bounds allocations driven by a file header.
	maxSamples = 1 << 31
)

type fileHeader struct {
	Magic   [4]byte
	Version uint32
	Dims    [3]uint32
	Spacing [3]float64
	Origin  [3]float64
}

// Read decodes a grid from r.
func Read(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	var hdr fileHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("volume: read header: %w", err)
	}
	if string(hdr.Magic[:]) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidGrid, hdr.Magic[:])
	}
	if hdr.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidGrid, hdr.Version)
	}
	n := uint64(hdr.Dims[0]) * uint64(hdr.Dims[1]) * uint64(hdr.Dims[2])
	if n > maxSamples {
		return nil, fmt.Errorf("%w: %d samples exceeds limit", ErrInvalidGrid, n)
	}
	raw := make([]float32, n)
	if err := binary.Read(br, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("volume: read samples: %w", err)
	}
	data := make([]float64, n)
	for i, v := range raw {
		data[i] = float64(v)
	}
	dims := [3]int{int(hdr.Dims[0]), int(hdr.Dims[1]), int(hdr.Dims[2])}
	spacing := v3.Vec{X: hdr.Spacing[0], Y: hdr.Spacing[1], Z: hdr.Spacing[2]}
	origin := v3.Vec{X: hdr.Origin[0], Y: hdr.Origin[1], Z: hdr.Origin[2]}
	return New(dims, spacing, origin, data)
}

// Write encodes g to w. Samples are stored as float32.
func Write(w io.Writer, g *Grid) error {
	hdr := fileHeader{
		Version: fileVersion,
		Dims:    [3]uint32{uint32(g.Dims[0]), uint32(g.Dims[1]), uint32(g.Dims[2])},
		Spacing: [3]float64{g.Spacing.X, g.Spacing.Y, g.Spacing.Z},
		Origin:  [3]float64{g.Origin.X, g.Origin.Y, g.Origin.Z},
	}
	copy(hdr.Magic[:], fileMagic)
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("volume: write header: %w", err)
	}
	raw := make([]float32, len(g.Data))
	for i, v := range g.Data {
		if math.Abs(v) > math.MaxFloat32 {
			return fmt.Errorf("%w: sample %d (%g) does not fit float32", ErrInvalidGrid, i, v)
		}
		raw[i] = float32(v)
	}
	if err := binary.Write(bw, binary.LittleEndian, raw); err != nil {
		return fmt.Errorf("volume: write samples: %w", err)
	}
	return bw.Flush()
}

// Load reads a grid from a file.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Save writes a grid to a file.
func Save(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
