package pricing

import (
	"errors"
	"math"
)

// Direction of a stock adjustment line.
type Direction string

const (
	DirectionPlus  Direction = "PLUS"
	DirectionMinus Direction = "MINUS"
)

// adjustEpsilon absorbs float noise between the stored on-hand value and the typed target.
const adjustEpsilon = 1e-7

var ErrNoChange = errors.New("target equals current quantity")

// Adjustment describes the movement needed to bring on-hand stock to a target.
type Adjustment struct {
	Current   float64   `json:"current"`
	Target    float64   `json:"target"`
	Delta     float64   `json:"delta"`
	Magnitude float64   `json:"magnitude"`
	Direction Direction `json:"direction"`
}

// ComputeAdjustment returns ErrNoChange when |target-current| is below epsilon
// and ErrInvalidNumber for non-finite input.
func ComputeAdjustment(current, target float64) (Adjustment, error) {
	if math.IsNaN(current) || math.IsInf(current, 0) || math.IsNaN(target) || math.IsInf(target, 0) {
		return Adjustment{}, ErrInvalidNumber
	}

	delta := target - current
	if math.Abs(delta) < adjustEpsilon {
		return Adjustment{}, ErrNoChange
	}

	dir := DirectionPlus
	if delta < 0 {
		dir = DirectionMinus
	}
	return Adjustment{
		Current:   current,
		Target:    target,
		Delta:     delta,
		Magnitude: math.Abs(delta),
		Direction: dir,
	}, nil
}
