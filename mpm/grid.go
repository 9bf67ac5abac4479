package mpm

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// atomicFloat32 is a float32 accumulator safe for concurrent adds.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (a *atomicFloat32) Add(v float32) {
	for {
		old := a.bits.Load()
		next := math.Float32bits(math.Float32frombits(old) + v)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

func (a *atomicFloat32) Load() float32 {
	return math.Float32frombits(a.bits.Load())
}

func (a *atomicFloat32) Store(v float32) {
	a.bits.Store(math.Float32bits(v))
}

// Cell is one grid node. Momentum holds momentum during P2G and velocity
// after GridUpdate.
type Cell struct {
	mass     atomicFloat32
	momentum [3]atomicFloat32
}

// Grid is a cubic lattice of Size^3 nodes. Node (x, y, z) sits at grid
// coordinate (x, y, z).
type Grid struct {
	Size  int
	cells []Cell
}

// NewGrid allocates a zeroed grid with size^3 nodes.
func NewGrid(size int) *Grid {
	return &Grid{
		Size:  size,
		cells: make([]Cell, size*size*size),
	}
}

// Len returns the number of nodes.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Index returns the flat index of node (x, y, z).
func (g *Grid) Index(x, y, z int) int {
	return x + g.Size*(y+g.Size*z)
}

// Coords returns the node coordinates of a flat index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx % g.Size
	y = (idx / g.Size) % g.Size
	z = idx / (g.Size * g.Size)
	return x, y, z
}

// Mass returns the accumulated mass at idx.
func (g *Grid) Mass(idx int) float32 {
	return g.cells[idx].mass.Load()
}

// Momentum returns the momentum (or velocity, after GridUpdate) at idx.
func (g *Grid) Momentum(idx int) mgl32.Vec3 {
	c := &g.cells[idx]
	return mgl32.Vec3{c.momentum[0].Load(), c.momentum[1].Load(), c.momentum[2].Load()}
}

// Velocity is Momentum read after GridUpdate.
func (g *Grid) Velocity(idx int) mgl32.Vec3 {
	return g.Momentum(idx)
}

func (g *Grid) addMass(idx int, m float32) {
	g.cells[idx].mass.Add(m)
}

func (g *Grid) addMomentum(idx int, v mgl32.Vec3) {
	c := &g.cells[idx]
	c.momentum[0].Add(v[0])
	c.momentum[1].Add(v[1])
	c.momentum[2].Add(v[2])
}

func (g *Grid) storeMomentum(idx int, v mgl32.Vec3) {
	c := &g.cells[idx]
	c.momentum[0].Store(v[0])
	c.momentum[1].Store(v[1])
	c.momentum[2].Store(v[2])
}

// Clear zeroes nodes [start, end).
func (g *Grid) Clear(start, end int) {
	for i := start; i < end; i++ {
		c := &g.cells[i]
		c.mass.Store(0)
		c.momentum[0].Store(0)
		c.momentum[1].Store(0)
		c.momentum[2].Store(0)
	}
}

// TotalMass sums mass over all nodes, in float64.
func (g *Grid) TotalMass() float64 {
	var total float64
	for i := range g.cells {
		total += float64(g.cells[i].mass.Load())
	}
	return total
}

// IsZero reports whether every node holds zero mass and momentum.
func (g *Grid) IsZero() bool {
	for i := range g.cells {
		c := &g.cells[i]
		if c.mass.bits.Load() != 0 ||
			c.momentum[0].bits.Load() != 0 ||
			c.momentum[1].bits.Load() != 0 ||
			c.momentum[2].bits.Load() != 0 {
			return false
		}
	}
	return true
}
