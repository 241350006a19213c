package viz

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/vehicle"
)

// Silhouette is a drone outline in world coordinates: the body centre, one
// point per rotor hub and the tip of the body x axis.
type Silhouette struct {
	Center mgl64.Vec3
	Rotors [vehicle.NumRotors]mgl64.Vec3
	Nose   mgl64.Vec3
}

// Outline places the rotor layout of spec at the pose of s. Arm lengths are
// multiplied by scale so the vehicle stays visible at room scale.
func Outline(s physics.DroneState, spec *vehicle.Spec, scale float64) Silhouette {
	o := s.Orientation
	q := mgl64.Quat{W: o.W, V: mgl64.Vec3{o.X, o.Y, o.Z}}
	c := mgl64.Vec3{s.Position.X, s.Position.Y, s.Position.Z}

	out := Silhouette{Center: c}
	arm := 0.0
	for i, r := range spec.RotorPositions {
		body := mgl64.Vec3{r.X, r.Y, r.Z}.Mul(scale)
		out.Rotors[i] = c.Add(q.Rotate(body))
		arm = max(arm, body.Len())
	}
	out.Nose = c.Add(q.Rotate(mgl64.Vec3{arm * 1.5, 0, 0}))
	return out
}

// Axis picks two world components for a 2D view.
type Axis struct {
	Name   string
	H, V   int
	HLabel string
	VLabel string
}

var (
	SideView = Axis{Name: "side", H: 0, V: 2, HLabel: "x", VLabel: "z"}
	TopView  = Axis{Name: "top", H: 0, V: 1, HLabel: "x", VLabel: "y"}
)

func (a Axis) Project(p mgl64.Vec3) (float64, float64) {
	return p[a.H], p[a.V]
}

// Draw renders the silhouette onto c: crossed arms, a small hub square at
// each rotor and a nose line.
func (sil Silhouette) Draw(c *Canvas, vp Viewport, a Axis) {
	cx, cy := a.Project(sil.Center)
	for i := 0; i < len(sil.Rotors)/2; i++ {
		x0, y0 := a.Project(sil.Rotors[i])
		x1, y1 := a.Project(sil.Rotors[i+len(sil.Rotors)/2])
		c.Line(vp, x0, y0, x1, y1)
	}
	for _, r := range sil.Rotors {
		rx, ry := a.Project(r)
		px, py := vp.Dot(c, rx, ry)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				c.Set(px+dx, py+dy)
			}
		}
	}
	nx, ny := a.Project(sil.Nose)
	c.Line(vp, cx, cy, nx, ny)
}
