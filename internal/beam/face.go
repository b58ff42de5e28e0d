package beam

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Face is an axis-aligned face direction. Contacts name faces in the world
// frame; loci are authored against faces of the unrotated local frame.
type Face int

const (
	Right  Face = iota // +X
	Left               // -X
	Front              // +Y
	Back               // -Y
	Top                // +Z
	Bottom             // -Z
)

var faceNames = [...]string{"right", "left", "front", "back", "top", "bottom"}

func (f Face) String() string {
	if !f.Valid() {
		return "face(" + strconv.Itoa(int(f)) + ")"
	}
	return faceNames[f]
}

// Valid reports whether f is one of the six faces.
func (f Face) Valid() bool {
	return f >= Right && f <= Bottom
}

// Faces returns all faces in id order.
func Faces() []Face {
	return []Face{Right, Left, Front, Back, Top, Bottom}
}

// ParseFace accepts a face name ("top") or its numeric id ("4").
func ParseFace(s string) (Face, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range faceNames {
		if s == name {
			return Face(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Face(n).Valid() {
		return Face(n), nil
	}
	return 0, fmt.Errorf("unknown face %q (valid: %s or 0-5)", s, strings.Join(faceNames[:], ", "))
}

// Normal returns the outward unit normal of f.
func (f Face) Normal() r3.Vec {
	switch f {
	case Right:
		return r3.Vec{X: 1}
	case Left:
		return r3.Vec{X: -1}
	case Front:
		return r3.Vec{Y: 1}
	case Back:
		return r3.Vec{Y: -1}
	case Top:
		return r3.Vec{Z: 1}
	case Bottom:
		return r3.Vec{Z: -1}
	}
	return r3.Vec{}
}

// faceOf classifies a direction by its dominant axis.
func faceOf(n r3.Vec) Face {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case az >= ax && az >= ay:
		if n.Z < 0 {
			return Bottom
		}
		return Top
	case ax >= ay:
		if n.X < 0 {
			return Left
		}
		return Right
	default:
		if n.Y < 0 {
			return Back
		}
		return Front
	}
}

// Quadrant returns the 90° bucket (0..3) a yaw angle falls into. Each bucket
// spans ±45° around 0°, 90°, 180° and 270°.
func Quadrant(rotationZ float64) int {
	deg := math.Mod(rotationZ*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	return int((deg+45)/90) % 4
}

// LocalFace maps a world face to the local face of a beam rotated by
// rotationZ. The world normal is rotated back by the quadrant's cardinal
// angle and classified again; Top and Bottom are invariant under yaw.
func LocalFace(world Face, rotationZ float64) Face {
	if world == Top || world == Bottom || !world.Valid() {
		return world
	}
	q := float64(Quadrant(rotationZ)) * math.Pi / 2
	return faceOf(Rotation(-q).MulVec(world.Normal()))
}

// WorldFace is the inverse of LocalFace.
func WorldFace(local Face, rotationZ float64) Face {
	if local == Top || local == Bottom || !local.Valid() {
		return local
	}
	q := float64(Quadrant(rotationZ)) * math.Pi / 2
	return faceOf(Rotation(q).MulVec(local.Normal()))
}
