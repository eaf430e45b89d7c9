package review

import (
	"errors"
	"fmt"
	"math"
)

// Rect is a normalized overlay region; every field is in [0,1].
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RegionInput is the raw, partially-specified rectangle a caller submits.
type RegionInput struct {
	X      *float64 `json:"rect_x,omitempty"`
	Y      *float64 `json:"rect_y,omitempty"`
	Width  *float64 `json:"rect_width,omitempty"`
	Height *float64 `json:"rect_height,omitempty"`
}

// Anchor ties a comment to a place in the asset.
type Anchor struct {
	Region    RegionInput
	Timestamp *float64
	Page      *int
}

var (
	ErrPartialRegion      = errors.New("region must provide x, y, width and height together")
	ErrRegionOutOfRange   = errors.New("region coordinates must be within [0,1]")
	ErrRegionUnsupported  = errors.New("asset type does not support region annotations")
	ErrTimestampInvalid   = errors.New("video timestamp must be a non-negative number")
	ErrTimestampForbidden = errors.New("video timestamp is only allowed on video assets")
	ErrPageInvalid        = errors.New("page number must be >= 1")
	ErrPageForbidden      = errors.New("page number is only allowed on pdf assets")
)

// Resolve returns the complete rectangle, nil when no field is set, or ErrPartialRegion.
func (r RegionInput) Resolve() (*Rect, error) {
	set := 0
	for _, f := range []*float64{r.X, r.Y, r.Width, r.Height} {
		if f != nil {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case 4:
	default:
		return nil, ErrPartialRegion
	}
	out := &Rect{X: *r.X, Y: *r.Y, Width: *r.Width, Height: *r.Height}
	for _, v := range []float64{out.X, out.Y, out.Width, out.Height} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, ErrRegionOutOfRange
		}
	}
	return out, nil
}

// ValidateAnchor checks an anchor against what the asset type can render.
func ValidateAnchor(t AssetType, a Anchor) (*Rect, error) {
	rect, err := a.Region.Resolve()
	if err != nil {
		return nil, err
	}
	if rect != nil && !t.SupportsRegion() {
		return nil, fmt.Errorf("%w: %s", ErrRegionUnsupported, t)
	}
	if a.Timestamp != nil {
		if !t.SupportsTimestamp() {
			return nil, ErrTimestampForbidden
		}
		if v := *a.Timestamp; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, ErrTimestampInvalid
		}
	}
	if a.Page != nil {
		if !t.SupportsPage() {
			return nil, ErrPageForbidden
		}
		if *a.Page < 1 {
			return nil, ErrPageInvalid
		}
	}
	return rect, nil
}
