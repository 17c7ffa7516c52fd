package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/table"

	"github.com/chazu/osteo/pkg/section"
)

// LayerName is the DXF layer holding the polylines of slice index.
func LayerName(index int) string {
	return fmt.Sprintf("slice-%03d", index)
}

// SaveDXF writes every polyline of slices to path as 3D line entities, one
// layer per slice. Closed polylines get their closing segment.
func SaveDXF(path string, slices []section.Slice) error {
	segments := 0
	for _, s := range slices {
		for _, pl := range s.Polylines {
			segments += pl.SegmentCount()
		}
	}
	if segments == 0 {
		return fmt.Errorf("export: %w: no section segments", ErrNothingToExport)
	}

	d := dxf.NewDrawing()
	for n, s := range slices {
		name := LayerName(s.Index)
		// Layer colours cycle through the seven standard ACI colours.
		if _, err := d.AddLayer(name, color.ColorNumber(1+n%7), table.LT_CONTINUOUS, true); err != nil {
			return fmt.Errorf("export: layer %s: %w", name, err)
		}
		if err := d.ChangeLayer(name); err != nil {
			return fmt.Errorf("export: layer %s: %w", name, err)
		}
		for _, pl := range s.Polylines {
			for i := 0; i < pl.SegmentCount(); i++ {
				a := pl.Points[i]
				b := pl.Points[(i+1)%pl.Len()]
				if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
					return fmt.Errorf("export: line: %w", err)
				}
			}
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
