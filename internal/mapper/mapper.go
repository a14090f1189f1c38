// Package mapper tags spatial query extents with discrete grid cells.
package mapper

import (
	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

type Interface interface {
	CellForBBox(bb model.BBox, res int) (string, error)
}
