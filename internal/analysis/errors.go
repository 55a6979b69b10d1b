package analysis

import "errors"

var (
	ErrTooFewPoints   = errors.New("polygon must have at least 3 points")
	ErrInvalidPolygon = errors.New("invalid polygon coordinates")
	ErrUnknownZone    = errors.New("unknown hardiness zone")
	ErrInvalidCrop    = errors.New("invalid crop profile")
	ErrNoClimateData  = errors.New("no daily climate samples")
)
