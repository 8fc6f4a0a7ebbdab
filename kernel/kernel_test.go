package kernel

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordens/electrode/geometry"
)

var allOrders = []int{0, 1, 2, 3, 4, 5}

func unitSquare() Polygon {
	p, err := NewPolygon(geometry.Path{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}})
	if err != nil {
		panic(err)
	}
	return p
}

// randomStarPolygon builds a simple (star-shaped) polygon around a center.
func randomStarPolygon(rng *rand.Rand, cx, cy float64, nv int) Polygon {
	path := make(geometry.Path, nv)
	for i := range path {
		ang := 2 * math.Pi * (float64(i) + 0.3*rng.Float64()) / float64(nv)
		rad := 0.5 + rng.Float64()
		path[i] = geometry.Vec2{cx + rad*math.Cos(ang), cy + rad*math.Sin(ang)}
	}
	p, err := NewPolygon(path)
	if err != nil {
		panic(err)
	}
	return p
}

// TestPointEndToEnd pins the closed form at r=1 on the z axis: the order-0
// value is 1/(2 pi) and the z gradient is -2/(2 pi).
func TestPointEndToEnd(t *testing.T) {
	for _, eng := range []Engine{Reference(), Fast()} {
		p := NewPoint(0, 0, 1)
		cov := Cover{Height: 50, NMax: 0}
		ts, err := cov.Evaluate(eng, p, geometry.Vec3{0, 0, 1}, []int{0, 1})
		require.NoError(t, err, eng.Name())

		assert.InDelta(t, 1/(2*math.Pi), ts[0].C[0], 1e-14, eng.Name())
		grad, err := ts[1].Expand()
		require.NoError(t, err)
		assert.InDelta(t, 0, grad[0], 1e-14, eng.Name())
		assert.InDelta(t, 0, grad[1], 1e-14, eng.Name())
		assert.InDelta(t, -2/(2*math.Pi), grad[2], 1e-13, eng.Name())
	}
}

// TestBackendEquivalence: the reference and fast backends agree to 1e-9
// relative on random inputs across all supported orders.
func TestBackendEquivalence(t *testing.T) {
	ref := Reference()
	fast := Fast()
	rng := rand.New(rand.NewSource(42))

	check := func(a, b []Tensor, label string) {
		t.Helper()
		for i := range a {
			scale := 1e-3
			for _, v := range a[i].C {
				scale = math.Max(scale, math.Abs(v))
			}
			for c := range a[i].C {
				assert.InDelta(t, a[i].C[c], b[i].C[c], 1e-9*scale,
					"%s order %d comp %d", label, a[i].Order, c)
			}
		}
	}

	for trial := 0; trial < 20; trial++ {
		x := geometry.Vec3{2 * rng.Float64(), 2*rng.Float64() - 1, 0.2 + 1.5*rng.Float64()}

		pt := NewPoint(rng.Float64(), rng.Float64(), 0.5+rng.Float64())
		a, err := ref.Point(x, pt, allOrders)
		require.NoError(t, err)
		b, err := fast.Point(x, pt, allOrders)
		require.NoError(t, err)
		check(a, b, "point")

		poly := randomStarPolygon(rng, rng.Float64(), rng.Float64(), 3+rng.Intn(5))
		a, err = ref.Polygon(x, poly, allOrders)
		require.NoError(t, err)
		b, err = fast.Polygon(x, poly, allOrders)
		require.NoError(t, err)
		check(a, b, "polygon")
	}
}

// TestPolygonFarField cross-checks the two kernels against each other: far
// away, a small patch looks like a point of the same area at its centroid.
func TestPolygonFarField(t *testing.T) {
	path := geometry.Path{{0.4, 0.2}, {0.6, 0.2}, {0.6, 0.4}, {0.4, 0.4}}
	poly, err := NewPolygon(path)
	require.NoError(t, err)
	area, c := path.Centroid()
	pt := Point{Loc: geometry.Vec3{c[0], c[1], 0}, Area: area}

	for _, eng := range []Engine{Reference(), Fast()} {
		x := geometry.Vec3{0, 0, 5}
		a, err := eng.Polygon(x, poly, []int{0, 1, 2})
		require.NoError(t, err)
		b, err := eng.Point(x, pt, []int{0, 1, 2})
		require.NoError(t, err)
		for i := range a {
			for cc := range a[i].C {
				ref := math.Max(math.Abs(b[i].C[cc]), 1e-6)
				assert.InDelta(t, b[i].C[cc], a[i].C[cc], 0.01*ref,
					"%s order %d comp %d", eng.Name(), a[i].Order, cc)
			}
		}
	}
}

// TestPolygonPlaneLimit checks the signed-|z| handling: just above the
// plane the patch potential is 1 inside the outline and 0 outside.
func TestPolygonPlaneLimit(t *testing.T) {
	poly := unitSquare()
	for _, eng := range []Engine{Reference(), Fast()} {
		in, err := eng.Polygon(geometry.Vec3{0.2, -0.3, 1e-9}, poly, []int{0})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, in[0].C[0], 1e-6, eng.Name())
		assert.False(t, math.IsNaN(in[0].C[0]), eng.Name())

		out, err := eng.Polygon(geometry.Vec3{3, 0.5, 1e-9}, poly, []int{0})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, out[0].C[0], 1e-6, eng.Name())

		below, err := eng.Polygon(geometry.Vec3{0.2, -0.3, -1e-9}, poly, []int{0})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, below[0].C[0], 1e-6, eng.Name())
	}
}

func TestCoverIdentityAndConvergence(t *testing.T) {
	p := NewPoint(0, 0, 1)
	x := geometry.Vec3{0.1, 0.2, 1}
	for _, eng := range []Engine{Reference(), Fast()} {
		bare, err := p.Evaluate(eng, x, []int{0})
		require.NoError(t, err)
		zero, err := Cover{Height: 2, NMax: 0}.Evaluate(eng, p, x, []int{0})
		require.NoError(t, err)
		assert.Equal(t, bare[0].C[0], zero[0].C[0], eng.Name())

		prev := bare[0].C[0]
		var diffs []float64
		for n := 1; n <= 5; n++ {
			ts, err := Cover{Height: 2, NMax: n}.Evaluate(eng, p, x, []int{0})
			require.NoError(t, err)
			diffs = append(diffs, math.Abs(ts[0].C[0]-prev))
			prev = ts[0].C[0]
		}
		for i := 1; i < len(diffs); i++ {
			assert.Less(t, diffs[i], diffs[i-1], "%s image %d", eng.Name(), i)
		}
	}
}

func TestOrientations(t *testing.T) {
	ccw := geometry.Path{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	cw := geometry.Path{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	p1, err := NewPolygon(ccw)
	require.NoError(t, err)
	p2, err := NewPolygon(cw)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p1.Orientation())
	assert.Equal(t, -1.0, p2.Orientation())
	assert.Equal(t, 1.0, NewPoint(0, 0, 1).Orientation())

	// a clockwise patch produces negative potential above the plane
	eng := Fast()
	ts, err := eng.Polygon(geometry.Vec3{0.5, 0.5, 0.3}, p2, []int{0})
	require.NoError(t, err)
	assert.Negative(t, ts[0].C[0])
}

func TestDegenerateGeometry(t *testing.T) {
	for _, eng := range []Engine{Reference(), Fast()} {
		_, err := eng.Point(geometry.Vec3{0.5, 0, 0}, NewPoint(0.5, 0, 1), []int{1})
		assert.True(t, errors.Is(err, ErrDegenerateGeometry), eng.Name())

		sq := unitSquare()
		// field point on a vertex
		_, err = eng.Polygon(geometry.Vec3{1, 1, 0}, sq, []int{0})
		assert.True(t, errors.Is(err, ErrDegenerateGeometry), eng.Name())

		// on an edge in the plane, derivatives requested
		_, err = eng.Polygon(geometry.Vec3{0, -1, 0}, sq, []int{1})
		assert.True(t, errors.Is(err, ErrDegenerateGeometry), eng.Name())
	}

	_, err := NewPolygon(geometry.Path{{0, 0}, {1, 0}})
	assert.True(t, errors.Is(err, ErrDegenerateGeometry))
	_, err = NewPolygon(geometry.Path{{0, 0}, {1, 0}, {1, 0}, {0, 1}})
	assert.True(t, errors.Is(err, ErrDegenerateGeometry))
}

func TestUnsupportedOrder(t *testing.T) {
	for _, eng := range []Engine{Reference(), Fast()} {
		_, err := eng.Point(geometry.Vec3{0, 0, 1}, NewPoint(0, 0, 1), []int{6})
		assert.True(t, errors.Is(err, ErrUnsupportedOrder), eng.Name())
		_, err = eng.Polygon(geometry.Vec3{0, 0, 1}, unitSquare(), []int{-1})
		assert.True(t, errors.Is(err, ErrUnsupportedOrder), eng.Name())
	}
}
