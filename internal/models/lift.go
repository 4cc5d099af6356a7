package models

import (
	"math"
	"strings"
)

type LiftType string

const (
	LiftSquat    LiftType = "SQUAT"
	LiftBench    LiftType = "BENCH"
	LiftDeadlift LiftType = "DEADLIFT"
)

// LiftTypes lists the lifts that count towards the total, in display order.
var LiftTypes = []LiftType{LiftSquat, LiftBench, LiftDeadlift}

// ParseLiftType accepts any casing and returns false for unknown lifts.
func ParseLiftType(s string) (LiftType, bool) {
	lt := LiftType(strings.ToUpper(strings.TrimSpace(s)))
	switch lt {
	case LiftSquat, LiftBench, LiftDeadlift:
		return lt, true
	}
	return "", false
}

type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
)

// ParseSex maps "M", "F" and "" to a Sex. Anything else is rejected.
func ParseSex(s string) (Sex, bool) {
	switch Sex(strings.ToUpper(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale, true
	case SexFemale:
		return SexFemale, true
	case SexUnknown:
		return SexUnknown, true
	}
	return "", false
}

// ValidWeight reports whether w is a usable lift weight in kilograms.
func ValidWeight(w float64) bool {
	return w > 0 && !math.IsNaN(w) && !math.IsInf(w, 0)
}
