package cache

import (
	"fmt"
	"io"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/tinylib/msgp/msgp"

	"github.com/chazu/osteo/pkg/kernel"
)

// entryVersion is bumped whenever the entry layout changes; entries with
// another version are treated as corrupt and recomputed.
const entryVersion = 1

// Encode writes f as a MessagePack map:
//
//	{"v": 1, "key": str, "signed": bool, "dims": [3]int,
//	 "points": [x0 y0 z0 x1 ...], "values": [...]}
//
// Floats are stored as float64 so values round-trip exactly.
func Encode(w io.Writer, f *kernel.ScalarField) error {
	if err := f.Validate(); err != nil {
		return err
	}
	mw := msgp.NewWriter(w)
	if err := mw.WriteMapHeader(6); err != nil {
		return err
	}
	if err := mw.WriteString("v"); err != nil {
		return err
	}
	if err := mw.WriteInt(entryVersion); err != nil {
		return err
	}
	if err := mw.WriteString("key"); err != nil {
		return err
	}
	if err := mw.WriteString(f.Key); err != nil {
		return err
	}
	if err := mw.WriteString("signed"); err != nil {
		return err
	}
	if err := mw.WriteBool(f.Signed); err != nil {
		return err
	}
	if err := mw.WriteString("dims"); err != nil {
		return err
	}
	if err := mw.WriteArrayHeader(3); err != nil {
		return err
	}
	for _, d := range f.Dims {
		if err := mw.WriteInt(d); err != nil {
			return err
		}
	}
	if err := mw.WriteString("points"); err != nil {
		return err
	}
	if err := mw.WriteArrayHeader(uint32(3 * len(f.Points))); err != nil {
		return err
	}
	for _, p := range f.Points {
		for _, c := range [3]float64{p.X, p.Y, p.Z} {
			if err := mw.WriteFloat64(c); err != nil {
				return err
			}
		}
	}
	if err := mw.WriteString("values"); err != nil {
		return err
	}
	if err := mw.WriteArrayHeader(uint32(len(f.Values))); err != nil {
		return err
	}
	for _, v := range f.Values {
		if err := mw.WriteFloat64(v); err != nil {
			return err
		}
	}
	return mw.Flush()
}

// Decode reads a field written by Encode. Any structural problem is
// reported as ErrCorrupt.
func Decode(r io.Reader) (*kernel.ScalarField, error) {
	f, err := decode(msgp.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return f, nil
}

func decode(mr *msgp.Reader) (*kernel.ScalarField, error) {
	n, err := mr.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	f := &kernel.ScalarField{}
	version := -1
	var coords []float64
	for i := uint32(0); i < n; i++ {
		name, err := mr.ReadString()
		if err != nil {
			return nil, err
		}
		switch name {
		case "v":
			if version, err = mr.ReadInt(); err != nil {
				return nil, err
			}
		case "key":
			if f.Key, err = mr.ReadString(); err != nil {
				return nil, err
			}
		case "signed":
			if f.Signed, err = mr.ReadBool(); err != nil {
				return nil, err
			}
		case "dims":
			sz, err := mr.ReadArrayHeader()
			if err != nil {
				return nil, err
			}
			if sz != 3 {
				return nil, fmt.Errorf("dims has %d entries", sz)
			}
			for d := range f.Dims {
				if f.Dims[d], err = mr.ReadInt(); err != nil {
					return nil, err
				}
			}
		case "points":
			if coords, err = readFloats(mr); err != nil {
				return nil, err
			}
		case "values":
			if f.Values, err = readFloats(mr); err != nil {
				return nil, err
			}
		default:
			if err := mr.Skip(); err != nil {
				return nil, err
			}
		}
	}
	if version != entryVersion {
		return nil, fmt.Errorf("entry version %d, want %d", version, entryVersion)
	}
	if len(coords)%3 != 0 {
		return nil, fmt.Errorf("%d point coordinates", len(coords))
	}
	f.Points = make([]v3.Vec, len(coords)/3)
	for i := range f.Points {
		f.Points[i] = v3.Vec{X: coords[3*i], Y: coords[3*i+1], Z: coords[3*i+2]}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func readFloats(mr *msgp.Reader) ([]float64, error) {
	sz, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, min(sz, 1<<20))
	for i := uint32(0); i < sz; i++ {
		v, err := mr.ReadFloat64()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
