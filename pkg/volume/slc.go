package volume

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SLC is the VolVis slice format: an ASCII header followed by an RGB icon
// and one 8-bit plane per slice, each optionally run-length encoded.
//
//	11111
//	nx ny nz bits
//	sx sy sz
//	units origin modification compression
//	iconW iconH X <icon red> <icon green> <icon blue>
//	per slice: size X <plane bytes>
const (
	slcMagic = 11111

	slcUncompressed = 0
	slcRunLength    = 1
)

// ReadSLC decodes an SLC volume. Samples keep their raw 0..255 values and
// the grid origin is zero, as the format carries no position.
func ReadSLC(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	ints := func(n int) ([]int, error) {
		out := make([]int, n)
		for i := range out {
			tok, err := slcToken(br)
			if err != nil {
				return nil, err
			}
			if out[i], err = strconv.Atoi(tok); err != nil {
				return nil, fmt.Errorf("slc: bad integer %q", tok)
			}
		}
		return out, nil
	}

	h, err := ints(5)
	if err != nil {
		return nil, fmt.Errorf("slc: header: %w", err)
	}
	if h[0] != slcMagic {
		return nil, fmt.Errorf("slc: bad magic %d", h[0])
	}
	dims := [3]int{h[1], h[2], h[3]}
	if h[4] != 8 {
		return nil, fmt.Errorf("slc: %d bits per voxel unsupported", h[4])
	}
	var spacing [3]float64
	for i := range spacing {
		tok, err := slcToken(br)
		if err != nil {
			return nil, fmt.Errorf("slc: spacing: %w", err)
		}
		if spacing[i], err = strconv.ParseFloat(tok, 64); err != nil {
			return nil, fmt.Errorf("slc: bad spacing %q", tok)
		}
	}
	meta, err := ints(4)
	if err != nil {
		return nil, fmt.Errorf("slc: header: %w", err)
	}
	compression := meta[3]
	if compression != slcUncompressed && compression != slcRunLength {
		return nil, fmt.Errorf("slc: compression %d unsupported", compression)
	}

	n := dims[0] * dims[1] * dims[2]
	if dims[0] < 1 || dims[1] < 1 || dims[2] < 1 || n > maxSamples {
		return nil, fmt.Errorf("%w: slc dims %v", ErrInvalidGrid, dims)
	}

	icon, err := ints(2)
	if err != nil {
		return nil, fmt.Errorf("slc: icon: %w", err)
	}
	if err := slcExpectX(br); err != nil {
		return nil, err
	}
	if _, err := io.CopyN(io.Discard, br, 3*int64(icon[0])*int64(icon[1])); err != nil {
		return nil, fmt.Errorf("slc: icon: %w", err)
	}

	plane := dims[0] * dims[1]
	data := make([]float64, 0, n)
	buf := make([]byte, plane)
	for z := 0; z < dims[2]; z++ {
		size, err := ints(1)
		if err != nil {
			return nil, fmt.Errorf("slc: slice %d: %w", z, err)
		}
		if err := slcExpectX(br); err != nil {
			return nil, fmt.Errorf("slc: slice %d: %w", z, err)
		}
		switch compression {
		case slcUncompressed:
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, fmt.Errorf("slc: slice %d: %w", z, err)
			}
		case slcRunLength:
			if size[0] < 0 || size[0] > 2*plane+2 {
				return nil, fmt.Errorf("slc: slice %d: compressed size %d", z, size[0])
			}
			packed := make([]byte, size[0])
			if _, err := io.ReadFull(br, packed); err != nil {
				return nil, fmt.Errorf("slc: slice %d: %w", z, err)
			}
			if err := unpackRuns(packed, buf); err != nil {
				return nil, fmt.Errorf("slc: slice %d: %w", z, err)
			}
		}
		for _, b := range buf {
			data = append(data, float64(b))
		}
	}
	return New(dims, v3.Vec{X: spacing[0], Y: spacing[1], Z: spacing[2]}, v3.Vec{}, data)
}

// LoadSLC reads an SLC file.
func LoadSLC(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := ReadSLC(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// unpackRuns expands SLC run-length data into out. Each control byte holds
// a count in its low 7 bits; with the high bit set that many literal bytes
// follow, otherwise one byte follows to be repeated. A zero count ends the
// plane.
func unpackRuns(in, out []byte) error {
	o := 0
	for i := 0; i < len(in); {
		ctl := in[i]
		i++
		count := int(ctl & 0x7f)
		if count == 0 {
			break
		}
		if o+count > len(out) {
			return fmt.Errorf("run overflows plane of %d bytes", len(out))
		}
		if ctl&0x80 != 0 {
			if i+count > len(in) {
				return io.ErrUnexpectedEOF
			}
			copy(out[o:], in[i:i+count])
			i += count
		} else {
			if i >= len(in) {
				return io.ErrUnexpectedEOF
			}
			for k := 0; k < count; k++ {
				out[o+k] = in[i]
			}
			i++
		}
		o += count
	}
	if o != len(out) {
		return fmt.Errorf("runs fill %d of %d bytes", o, len(out))
	}
	return nil
}

// slcToken reads one whitespace-delimited ASCII token.
func slcToken(br *bufio.Reader) (string, error) {
	if err := skipSpace(br); err != nil {
		return "", err
	}
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err == io.EOF && len(tok) > 0 {
			return string(tok), nil
		}
		if err != nil {
			return "", err
		}
		if isSpace(b) {
			return string(tok), nil
		}
		if len(tok) > 64 {
			return "", fmt.Errorf("token too long")
		}
		tok = append(tok, b)
	}
}

// slcExpectX consumes the X that separates a size from binary data without
// reading past it.
func slcExpectX(br *bufio.Reader) error {
	if err := skipSpace(br); err != nil {
		return err
	}
	b, err := br.ReadByte()
	if err != nil {
		return err
	}
	if b != 'X' {
		return fmt.Errorf("slc: expected X before binary data, got %q", b)
	}
	return nil
}

func skipSpace(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if !isSpace(b) {
			return br.UnreadByte()
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\r' || b == '\t'
}
