package scene

import (
	"fmt"

	"github.com/chazu/osteo/pkg/config"
)

// Severity indicates whether a validation finding blocks export or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks export
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Item     string // item name, empty for scene-level findings
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] item %q: %s", e.Severity, e.Item, e.Message)
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the scene against the palette. It never mutates the
// scene. An empty result means the scene is valid.
func Validate(s *Scene, palette config.Palette) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(s)...)
	if _, ok := palette.Lookup(s.Background); !ok {
		errs = append(errs, ValidationError{
			Message:  fmt.Sprintf("background colour %q is not in the palette", s.Background),
			Severity: SeverityError,
		})
	}
	for _, it := range s.Items {
		errs = append(errs, validatePayload(it)...)
		errs = append(errs, validateStyle(it, palette)...)
	}
	return errs
}

func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(s.Items))
	for i, it := range s.Items {
		switch {
		case it.Name == "":
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("item %d (%s) has no name", i, it.Kind),
				Severity: SeverityError,
			})
		case seen[it.Name]:
			errs = append(errs, ValidationError{
				Item:     it.Name,
				Message:  "name is used by more than one item",
				Severity: SeverityError,
			})
		}
		seen[it.Name] = true
	}
	return errs
}

func validatePayload(it *Item) []ValidationError {
	fail := func(sev Severity, format string, args ...any) []ValidationError {
		return []ValidationError{{Item: it.Name, Message: fmt.Sprintf(format, args...), Severity: sev}}
	}
	switch {
	case it.Kind.HasMesh():
		if it.Mesh == nil {
			return fail(SeverityError, "%s item has no mesh", it.Kind)
		}
		if err := it.Mesh.Validate(); err != nil {
			return fail(SeverityError, "%v", err)
		}
		if it.Kind == KindDistance && !it.Mesh.HasScalars() {
			return fail(SeverityError, "distance item carries no scalars")
		}
		if it.Mesh.IsEmpty() {
			return fail(SeverityWarning, "%s is empty", it.Kind)
		}
	case it.Kind == KindSection:
		if len(it.Slices) == 0 {
			return fail(SeverityWarning, "no plane intersects the mesh")
		}
	case it.Kind == KindOutline:
		if len(it.Polylines) == 0 {
			return fail(SeverityError, "outline has no polylines")
		}
	case it.Kind == KindField:
		if it.Field == nil {
			return fail(SeverityError, "field item has no field")
		}
		if err := it.Field.Validate(); err != nil {
			return fail(SeverityError, "%v", err)
		}
	default:
		return fail(SeverityError, "unknown item kind %s", it.Kind)
	}
	return nil
}

func validateStyle(it *Item, palette config.Palette) []ValidationError {
	var errs []ValidationError
	add := func(format string, args ...any) {
		errs = append(errs, ValidationError{Item: it.Name, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}
	st := it.Style
	if _, ok := palette.Lookup(st.Color); !ok {
		add("colour %q is not in the palette", st.Color)
	}
	if st.BackfaceColor != "" {
		if _, ok := palette.Lookup(st.BackfaceColor); !ok {
			add("backface colour %q is not in the palette", st.BackfaceColor)
		}
	}
	if st.Opacity < 0 || st.Opacity > 1 {
		add("opacity %g outside [0, 1]", st.Opacity)
	}
	if st.Diffuse < 0 || st.Specular < 0 || st.SpecularPower < 0 {
		add("negative lighting coefficient")
	}
	return errs
}
