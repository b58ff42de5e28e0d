package blueprint

import (
	"math"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/solver"
)

// postAndBeam: posts 0 and 1 at x = ±1.5 carry purlin 2, which is turned a
// quarter so its length spans the X axis.
func postAndBeam(Options) ([]beam.Beam, solver.Topology) {
	left, right := beam.NewPost(), beam.NewPost()
	left.X, right.X = -1.5, 1.5

	purlin := beam.NewPurlin()
	purlin.RotationZ = math.Pi / 2
	purlin.Z = left.Height
	purlin.Length = 3.5

	topo := solver.NewTopology()
	topo.Connect("top", solver.Contact{I: 0, J: 2, FaceI: beam.Top, FaceJ: beam.Bottom})
	topo.Connect("top", solver.Contact{I: 1, J: 2, FaceI: beam.Top, FaceJ: beam.Bottom})
	topo.Identify(0, 1)
	return []beam.Beam{left, right, purlin}, topo
}

// rafterOnPurlin: purlin 0 runs along Y on posts 1 and 2; rafter 3 rests
// with its middle notch on the purlin and hooks its middle cut behind the
// purlin's outer face.
func rafterOnPurlin(Options) ([]beam.Beam, solver.Topology) {
	rafter := beam.NewRafter()

	purlin := beam.NewPurlin()
	purlin.X = rafter.NotchXMiddle - purlin.Width/2
	purlin.Z = 2.2

	posts := []*beam.Post{beam.NewPost(), beam.NewPost()}
	for i, p := range posts {
		p.X = purlin.X
		p.Y = []float64{-1.5, 1.5}[i]
		p.Height = purlin.Z
	}

	// Middle shelf on the purlin top.
	rafter.Z = purlin.Z + purlin.Height + rafter.Steepness*rafter.NotchXMiddle + rafter.Height - rafter.NotchMiddleDepth

	topo := solver.NewTopology()
	topo.Connect("top", solver.Contact{I: 1, J: 0, FaceI: beam.Top, FaceJ: beam.Bottom})
	topo.Connect("top", solver.Contact{I: 2, J: 0, FaceI: beam.Top, FaceJ: beam.Bottom})
	topo.Connect("top", solver.Contact{I: 0, J: 3, FaceI: beam.Top, FaceJ: beam.Bottom, LocusJ: beam.NotchMiddle})
	topo.Connect("right", solver.Contact{I: 0, J: 3, FaceI: beam.Right, FaceJ: beam.Left, LocusJ: beam.NotchMiddle})
	topo.Identify(1, 2)
	return []beam.Beam{purlin, posts[0], posts[1], rafter}, topo
}

// Pfettendach layout indices.
const (
	RidgePurlin       = 0
	MiddlePurlinRight = 1
	MiddlePurlinLeft  = 2
	FootPurlinRight   = 3
	FootPurlinLeft    = 4
	FirstPost         = 5
)

// pfettendach builds a gable roof of length 10 m and half span 4 m at 45°.
// Purlins run along Y. Posts stand in pairs under the middle purlins and
// rafters come in pairs, the right one at yaw 0 and the left one at yaw π,
// meeting at the ridge. Posts are ordered right, left, right, ... and so are
// rafters.
func pfettendach(opts Options) ([]beam.Beam, solver.Topology) {
	const (
		roofLength = 10.0
		halfSpan   = 4.0
		purlinW    = 0.14
		purlinH    = 0.16
		rafterW    = 0.10
		rafterH    = 0.16
		postH      = 2.2
		steepness  = 1.0
		notchDepth = 0.05
	)
	notchRidge := purlinW / 2
	notchMiddle := halfSpan * 0.5
	notchFoot := halfSpan * 0.95
	run := halfSpan + 0.5

	ridgeZ := postH + purlinH + steepness*notchMiddle + rafterH - notchDepth

	newPurlin := func(x, z float64) *beam.Purlin {
		p := beam.NewPurlin()
		p.Length, p.Width, p.Height = roofLength, purlinW, purlinH
		p.X, p.Z = x, z
		return p
	}
	middleX := notchMiddle - purlinW/2
	footX := notchFoot - purlinW/2
	footZ := ridgeZ - steepness*notchFoot - rafterH + notchDepth - purlinH

	beams := []beam.Beam{
		newPurlin(0, ridgeZ-rafterH-purlinH),
		newPurlin(middleX, postH),
		newPurlin(-middleX, postH),
		newPurlin(footX, footZ),
		newPurlin(-footX, footZ),
	}

	var postIdx []int
	spacing := roofLength / float64(opts.PostPairs+1)
	for i := 0; i < opts.PostPairs; i++ {
		y := -roofLength/2 + float64(i+1)*spacing
		for _, side := range []float64{1, -1} {
			p := beam.NewPost()
			p.Height = postH
			p.X, p.Y = side*middleX, y
			postIdx = append(postIdx, len(beams))
			beams = append(beams, p)
		}
	}

	var rafterIdx []int
	for i := 0; i < opts.RafterPairs; i++ {
		y := 0.0
		if opts.RafterPairs > 1 {
			y = -roofLength/2 + float64(i)*roofLength/float64(opts.RafterPairs-1)
		}
		for _, yaw := range []float64{0, math.Pi} {
			r := beam.NewRafter()
			r.Width, r.Height = rafterW, rafterH
			r.ProjectedLength, r.Steepness = run, steepness
			r.NotchXMiddle, r.NotchXFoot, r.NotchRidgeLength = notchMiddle, notchFoot, notchRidge
			r.NotchMiddleDepth, r.NotchFootDepth = notchDepth, notchDepth
			r.RotationZ = yaw
			r.Y, r.Z = y, ridgeZ
			rafterIdx = append(rafterIdx, len(beams))
			beams = append(beams, r)
		}
	}

	topo := solver.NewTopology()

	// Posts carry the middle purlin of their side.
	for n, idx := range postIdx {
		purlin := MiddlePurlinRight
		if n%2 == 1 {
			purlin = MiddlePurlinLeft
		}
		topo.Connect("top", solver.Contact{I: idx, J: purlin, FaceI: beam.Top, FaceJ: beam.Bottom})
	}

	// Each rafter sits with three notches on three purlins. The shelf rests
	// on the purlin top and the notch cut locks against the purlin face
	// pointing away from the ridge.
	for n, idx := range rafterIdx {
		right := n%2 == 0
		targets := [][2]int{
			{RidgePurlin, beam.NotchRidge},
			{MiddlePurlinRight, beam.NotchMiddle},
			{FootPurlinRight, beam.NotchFoot},
		}
		purlinFace, rafterFace, group := beam.Right, beam.Left, "right"
		if !right {
			targets[1][0], targets[2][0] = MiddlePurlinLeft, FootPurlinLeft
			purlinFace, rafterFace, group = beam.Left, beam.Right, "left"
		}
		for _, t := range targets {
			topo.Connect("top", solver.Contact{I: t[0], J: idx, FaceI: beam.Top, FaceJ: beam.Bottom, LocusJ: t[1]})
			topo.Connect(group, solver.Contact{I: t[0], J: idx, FaceI: purlinFace, FaceJ: rafterFace, LocusJ: t[1]})
		}
	}

	// Rafter pairs meet at the ridge end.
	for i := 0; i+1 < len(rafterIdx); i += 2 {
		topo.Connect("left", solver.Contact{
			I: rafterIdx[i], J: rafterIdx[i+1],
			FaceI: beam.Left, FaceJ: beam.Right,
			LocusI: beam.RidgeEnd, LocusJ: beam.RidgeEnd,
		})
	}

	topo.Chain(postIdx...)
	topo.Chain(rafterIdx...)
	return beams, topo
}
