package mesh

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hschendel/stl"
)

// Solid converts the mesh to an STL solid with float32 coordinates.
func (m *Mesh) Solid() *stl.Solid {
	solid := &stl.Solid{
		Name:      m.Name,
		Triangles: make([]stl.Triangle, 0, len(m.Triangles)),
	}
	for _, t := range m.Triangles {
		n := t.Normal()
		tri := stl.Triangle{Normal: stl.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}}
		for i, v := range t.V {
			tri.Vertices[i] = stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		solid.Triangles = append(solid.Triangles, tri)
	}
	return solid
}

// WriteSTL writes the mesh as binary STL.
func (m *Mesh) WriteSTL(w io.Writer) error {
	return m.Solid().WriteAll(w)
}

// SaveSTL writes the mesh to a binary STL file, creating parent directories
// as needed.
func (m *Mesh) SaveSTL(filename string) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := m.Solid().WriteFile(filename); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}
