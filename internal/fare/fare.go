// Package fare turns a travelled distance and line surcharge into a
// rider charge.
package fare

import (
	"errors"
	"fmt"
)

const (
	BaseFare = 1250

	baseDistance   = 10
	middleDistance = 50
	middleUnit     = 5
	longUnit       = 8
	unitFare       = 100
)

var (
	ErrNegativeDistance  = errors.New("negative distance")
	ErrNegativeExtraFare = errors.New("negative extra fare")
)

// FareError carries the rejected input.
type FareError struct {
	Distance  int
	ExtraFare int
	Err       error
}

func (e *FareError) Error() string {
	return fmt.Sprintf("calculate fare (distance=%d extra=%d): %v", e.Distance, e.ExtraFare, e.Err)
}

func (e *FareError) Unwrap() error { return e.Err }

// Calculate prices a trip:
//
//	distance <= 10:       BaseFare
//	10 < distance <= 50:  + 100 per started 5 over 10
//	distance > 50:        + 800 + 100 per started 8 over 50
//
// maxExtraFare, the highest surcharge among the lines used, is added once.
func Calculate(distance, maxExtraFare int) (int, error) {
	if distance < 0 {
		return 0, &FareError{Distance: distance, ExtraFare: maxExtraFare, Err: ErrNegativeDistance}
	}
	if maxExtraFare < 0 {
		return 0, &FareError{Distance: distance, ExtraFare: maxExtraFare, Err: ErrNegativeExtraFare}
	}
	return distanceFare(distance) + maxExtraFare, nil
}

func distanceFare(distance int) int {
	fare := BaseFare
	if distance <= baseDistance {
		return fare
	}
	if distance <= middleDistance {
		return fare + ceilDiv(distance-baseDistance, middleUnit)*unitFare
	}
	fare += ceilDiv(middleDistance-baseDistance, middleUnit) * unitFare
	return fare + ceilDiv(distance-middleDistance, longUnit)*unitFare
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
