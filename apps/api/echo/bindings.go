package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/coursetools/core"
	"github.com/trezcool/coursetools/core/enrollment"
)

var orderingParam = "ordering"

// Ordering binds a comma-separated list of fields from the query string. A leading "-" means descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// EnrollmentFilter binds the enrollment listing query string: active, mode (repeatable) and ordering.
type EnrollmentFilter struct {
	Ordering
	Filter enrollment.QueryFilter
}

func (f *EnrollmentFilter) Bind(ctx echo.Context) error {
	if val := ctx.QueryParam("active"); val != "" {
		active, err := strconv.ParseBool(val)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "active", Error: "must be a boolean"})
		}
		f.Filter.IsActive = &active
	}
	for _, mode := range ctx.QueryParams()["mode"] {
		if mode = core.CleanString(mode, true /* lower */); mode != "" {
			f.Filter.Modes = append(f.Filter.Modes, mode)
		}
	}
	f.Ordering.Bind(ctx)
	f.Filter.Ordering = f.Orderings
	return nil
}
