package diagram

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/alexiusacademia/timbertrace/internal/beam"
)

// Structure is a solved assembly to draw.
type Structure struct {
	Title    string
	Beams    []beam.Beam
	Contacts []r3.Vec // global contact points, optional
}

// View selects the projection plane.
type View int

const (
	Elevation View = iota // X-Z, looking along +Y
	Plan                  // X-Y, looking down
)

func (v View) String() string {
	if v == Plan {
		return "plan"
	}
	return "elevation"
}

var kindColors = map[beam.Kind]color.RGBA{
	beam.KindPost:   {R: 139, G: 69, B: 19, A: 255},
	beam.KindPurlin: {R: 205, G: 133, B: 63, A: 255},
	beam.KindRafter: {R: 222, G: 184, B: 135, A: 255},
}

// project drops the coordinate perpendicular to the view.
func (v View) project(p r3.Vec) plotter.XY {
	if v == Plan {
		return plotter.XY{X: p.X, Y: p.Y}
	}
	return plotter.XY{X: p.X, Y: p.Z}
}

// outline returns the projected outline of a beam. Rafters in elevation show
// their notched side profile; everything else shows its bounding rectangle.
func outline(b beam.Beam, v View) (plotter.XYs, error) {
	if r, ok := b.(*beam.Rafter); ok && v == Elevation {
		prof := r.Profile()
		pts := make(plotter.XYs, len(prof))
		for i, pt := range prof {
			pts[i] = v.project(r.Frame.ToGlobal(r3.Vec{X: pt.X, Z: pt.Y}))
		}
		return pts, nil
	}
	m, err := b.Model()
	if err != nil {
		return nil, err
	}
	lo, hi := m.Bounds()
	a, c := v.project(lo), v.project(hi)
	return plotter.XYs{
		{X: a.X, Y: a.Y},
		{X: c.X, Y: a.Y},
		{X: c.X, Y: c.Y},
		{X: a.X, Y: c.Y},
	}, nil
}

// Draw builds a plot of the structure in the given view.
func Draw(s Structure, v View) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = s.Title
	if p.Title.Text == "" {
		p.Title.Text = "Structure " + v.String()
	}
	p.X.Label.Text = "x (m)"
	if v == Plan {
		p.Y.Label.Text = "y (m)"
	} else {
		p.Y.Label.Text = "z (m)"
	}
	p.Add(plotter.NewGrid())

	legend := map[beam.Kind]bool{}
	for i, b := range s.Beams {
		pts, err := outline(b, v)
		if err != nil {
			return nil, fmt.Errorf("beam %d: %w", i, err)
		}
		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return nil, fmt.Errorf("beam %d: %w", i, err)
		}
		c := kindColors[b.Kind()]
		poly.Color = color.RGBA{R: c.R, G: c.G, B: c.B, A: 150}
		poly.LineStyle.Color = color.Black
		poly.LineStyle.Width = vg.Points(0.5)
		p.Add(poly)
		if !legend[b.Kind()] {
			p.Legend.Add(b.Kind().String(), poly)
			legend[b.Kind()] = true
		}
	}

	if len(s.Contacts) > 0 {
		pts := make(plotter.XYs, len(s.Contacts))
		for i, c := range s.Contacts {
			pts[i] = v.project(c)
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255}
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("contact", sc)
	}

	p.Legend.Top = true
	return p, nil
}

// Export draws the structure and saves it. The format follows the file
// extension (.png, .svg, .pdf); anything else gets .png appended.
func Export(s Structure, v View, filename string) (string, error) {
	p, err := Draw(s, v)
	if err != nil {
		return "", err
	}
	return Save(p, filename)
}

// ExportViews writes the elevation to filename and the plan next to it with
// a _plan suffix. It returns the written paths.
func ExportViews(s Structure, filename string) ([]string, error) {
	ext := filepath.Ext(filename)
	planName := strings.TrimSuffix(filename, ext) + "_plan" + ext

	var written []string
	for _, job := range []struct {
		view View
		name string
	}{
		{Elevation, filename},
		{Plan, planName},
	} {
		path, err := Export(s, job.view, job.name)
		if err != nil {
			return written, fmt.Errorf("%s view: %w", job.view, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Save writes a plot to disk, creating the directory if needed, and returns
// the final path.
func Save(p *plot.Plot, filename string) (string, error) {
	width := 10 * vg.Inch
	height := 6 * vg.Inch

	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	switch filepath.Ext(filename) {
	case ".png", ".svg", ".pdf":
	default:
		filename += ".png"
	}
	if err := p.Save(width, height, filename); err != nil {
		return "", err
	}
	return filename, nil
}
