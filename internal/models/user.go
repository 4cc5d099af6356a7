package models

import "time"

// AnonymousName is shown for profiles without a display name.
const AnonymousName = "Anonymous"

type LiftBest struct {
	WeightKg float64 `json:"weightKg"`
	VideoRef string  `json:"videoRef"`
}

type TotalBest struct {
	WeightKg float64 `json:"weightKg"`
}

// PersonalBests is persisted as a single JSON document per user.
// Total is a cached sum of the three lifts as of the last write.
type PersonalBests struct {
	Squat    LiftBest   `json:"SQUAT"`
	Bench    LiftBest   `json:"BENCH"`
	Deadlift LiftBest   `json:"DEADLIFT"`
	Total    *TotalBest `json:"TOTAL,omitempty"`
}

func (pb PersonalBests) Lift(lt LiftType) LiftBest {
	switch lt {
	case LiftSquat:
		return pb.Squat
	case LiftBench:
		return pb.Bench
	case LiftDeadlift:
		return pb.Deadlift
	}
	return LiftBest{}
}

func (pb *PersonalBests) SetLift(lt LiftType, b LiftBest) {
	switch lt {
	case LiftSquat:
		pb.Squat = b
	case LiftBench:
		pb.Bench = b
	case LiftDeadlift:
		pb.Deadlift = b
	}
}

// LiftSum adds the three per-lift bests.
func (pb PersonalBests) LiftSum() float64 {
	return pb.Squat.WeightKg + pb.Bench.WeightKg + pb.Deadlift.WeightKg
}

// ZeroPersonalBests is the record a new user starts with.
func ZeroPersonalBests() PersonalBests {
	return PersonalBests{Total: &TotalBest{}}
}

type UserProfile struct {
	UID           string        `json:"uid"`
	Email         string        `json:"email"`
	DisplayName   string        `json:"displayName"`
	PhotoURL      string        `json:"photoUrl"`
	Sex           Sex           `json:"sex"`
	WeightClass   float64       `json:"weightClass"`
	PersonalBests PersonalBests `json:"personalBests"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Name returns the display name, falling back to AnonymousName.
func (u UserProfile) Name() string {
	if u.DisplayName == "" {
		return AnonymousName
	}
	return u.DisplayName
}

// Identity is what the identity provider supplies at account creation.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

// PBUpdate is the partial write applied to a profile after a new personal best.
// Sex and WeightClass are left untouched when nil.
type PBUpdate struct {
	PersonalBests PersonalBests
	Sex           *Sex
	WeightClass   *float64
}
