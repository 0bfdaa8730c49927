package triangulate

import (
	"fmt"
	"math/big"

	"github.com/chazu/voxmesh/pkg/polygon"
)

// exactLimit bounds the local extent for which the incircle determinant
// fits in an int64. Larger polygons use math/big.
const exactLimit = 4096

type vec struct {
	x, y int64
}

type edgeID [2]int

type cdtTri struct {
	v    [3]int
	dead bool
}

// cdt is a constrained Delaunay triangulation under construction. Vertices
// 0..2 form a super triangle enclosing every input point.
type cdt struct {
	pts   []vec
	orig  []polygon.Point
	tris  []cdtTri
	free  []int
	edges map[edgeID]int // directed edge -> triangle holding it counter-clockwise
	fixed map[edgeID]bool
	last  int
	wide  bool
}

// triangulatePolygon runs Bowyer-Watson over the loop vertices, restores
// missing loop edges by flipping, legalises the remaining edges and keeps
// the triangles inside the polygon under the even-odd rule.
func triangulatePolygon(p polygon.Polygon) []Triangle {
	loops := p.Loops()
	lo, hi := p.Bounds()
	m := int64(max(hi.X-lo.X, hi.Y-lo.Y)) + 1
	c := &cdt{
		edges: make(map[edgeID]int),
		fixed: make(map[edgeID]bool),
		wide:  m > exactLimit,
	}
	c.pts = append(c.pts, vec{-m, -m}, vec{5 * m, -m}, vec{-m, 5 * m})
	c.orig = append(c.orig, polygon.Point{}, polygon.Point{}, polygon.Point{})
	c.addTri(0, 1, 2)

	index := make(map[polygon.Point]int)
	for _, l := range loops {
		for _, q := range l[:len(l)-1] {
			if _, ok := index[q]; ok {
				continue
			}
			index[q] = len(c.pts)
			c.pts = append(c.pts, vec{int64(q.X - lo.X), int64(q.Y - lo.Y)})
			c.orig = append(c.orig, q)
			c.insert(index[q])
		}
	}
	for _, l := range loops {
		for i := 0; i+1 < len(l); i++ {
			a, b := index[l[i]], index[l[i+1]]
			c.fixed[edgeID{a, b}] = true
			c.fixed[edgeID{b, a}] = true
			c.recover(a, b)
		}
	}
	c.legalize()

	var out []Triangle
	for _, t := range c.tris {
		if t.dead || t.v[0] < 3 || t.v[1] < 3 || t.v[2] < 3 {
			continue
		}
		a, b, cc := c.orig[t.v[0]], c.orig[t.v[1]], c.orig[t.v[2]]
		if polygon.Inside(loops, 3, a.X+b.X+cc.X, a.Y+b.Y+cc.Y) {
			out = append(out, Triangle{a, b, cc})
		}
	}
	return out
}

func (c *cdt) addTri(a, b, cc int) int {
	var i int
	if n := len(c.free); n > 0 {
		i = c.free[n-1]
		c.free = c.free[:n-1]
		c.tris[i] = cdtTri{v: [3]int{a, b, cc}}
	} else {
		i = len(c.tris)
		c.tris = append(c.tris, cdtTri{v: [3]int{a, b, cc}})
	}
	c.link(i)
	c.last = i
	return i
}

func (c *cdt) link(i int) {
	v := c.tris[i].v
	for k := 0; k < 3; k++ {
		c.edges[edgeID{v[k], v[(k+1)%3]}] = i
	}
}

func (c *cdt) unlink(i int) {
	v := c.tris[i].v
	for k := 0; k < 3; k++ {
		e := edgeID{v[k], v[(k+1)%3]}
		if c.edges[e] == i {
			delete(c.edges, e)
		}
	}
}

func (c *cdt) kill(i int) {
	c.unlink(i)
	c.tris[i].dead = true
	c.free = append(c.free, i)
}

func (c *cdt) contains(i int, p vec) bool {
	v := c.tris[i].v
	for k := 0; k < 3; k++ {
		if orient(c.pts[v[k]], c.pts[v[(k+1)%3]], p) < 0 {
			return false
		}
	}
	return true
}

// locate walks from the last created triangle towards p and falls back to
// a scan if the walk does not settle.
func (c *cdt) locate(p vec) int {
	i := c.last
	for steps := 0; !c.tris[i].dead && steps <= len(c.tris); steps++ {
		v := c.tris[i].v
		moved := false
		for k := 0; k < 3; k++ {
			a, b := v[k], v[(k+1)%3]
			if orient(c.pts[a], c.pts[b], p) < 0 {
				if n, ok := c.edges[edgeID{b, a}]; ok {
					i = n
					moved = true
					break
				}
			}
		}
		if !moved {
			if c.contains(i, p) {
				return i
			}
			break
		}
	}
	for i, t := range c.tris {
		if !t.dead && c.contains(i, p) {
			return i
		}
	}
	panic(fmt.Sprintf("triangulate: point %v outside super triangle", p))
}

// insert adds vertex pi by replacing every triangle whose circumcircle
// strictly contains it with a fan around pi.
func (c *cdt) insert(pi int) {
	p := c.pts[pi]
	start := c.locate(p)
	bad := map[int]bool{start: true}
	cavity := []int{start}
	for n := 0; n < len(cavity); n++ {
		v := c.tris[cavity[n]].v
		for k := 0; k < 3; k++ {
			a, b := v[k], v[(k+1)%3]
			j, ok := c.edges[edgeID{b, a}]
			if !ok || bad[j] {
				continue
			}
			t := c.tris[j].v
			if c.incircle(c.pts[t[0]], c.pts[t[1]], c.pts[t[2]], p) > 0 {
				bad[j] = true
				cavity = append(cavity, j)
			}
		}
	}

	var boundary []edgeID
	for _, i := range cavity {
		v := c.tris[i].v
		for k := 0; k < 3; k++ {
			a, b := v[k], v[(k+1)%3]
			if j, ok := c.edges[edgeID{b, a}]; ok && bad[j] {
				continue
			}
			boundary = append(boundary, edgeID{a, b})
		}
	}
	for _, i := range cavity {
		c.kill(i)
	}
	for _, e := range boundary {
		if orient(c.pts[e[0]], c.pts[e[1]], p) <= 0 {
			panic(fmt.Sprintf("triangulate: cavity of %v is not star-shaped", p))
		}
		c.addTri(e[0], e[1], pi)
	}
}

func (c *cdt) hasEdge(a, b int) bool {
	_, ok := c.edges[edgeID{a, b}]
	if !ok {
		_, ok = c.edges[edgeID{b, a}]
	}
	return ok
}

func (c *cdt) third(i, a, b int) int {
	for _, w := range c.tris[i].v {
		if w != a && w != b {
			return w
		}
	}
	panic(fmt.Sprintf("triangulate: triangle %d is degenerate", i))
}

// crosses reports whether segments uv and ab intersect at a single point
// interior to both.
func (c *cdt) crosses(u, v, a, b int) bool {
	pu, pv, pa, pb := c.pts[u], c.pts[v], c.pts[a], c.pts[b]
	return orient(pa, pb, pu)*orient(pa, pb, pv) < 0 &&
		orient(pu, pv, pa)*orient(pu, pv, pb) < 0
}

// flip replaces the diagonal uv of the quad u, w2, v, w1 by w1w2. t1 holds
// u->v and t2 holds v->u.
func (c *cdt) flip(t1, t2, u, v, w1, w2 int) {
	c.unlink(t1)
	c.unlink(t2)
	c.tris[t1].v = [3]int{u, w2, w1}
	c.tris[t2].v = [3]int{w2, v, w1}
	c.link(t1)
	c.link(t2)
}

// quad returns the triangles on both sides of uv and their apexes.
func (c *cdt) quad(u, v int) (t1, t2, w1, w2 int, ok bool) {
	t1, ok1 := c.edges[edgeID{u, v}]
	t2, ok2 := c.edges[edgeID{v, u}]
	if !ok1 || !ok2 {
		return 0, 0, 0, 0, false
	}
	return t1, t2, c.third(t1, u, v), c.third(t2, v, u), true
}

func (c *cdt) convex(u, v, w1, w2 int) bool {
	return c.crosses(u, v, w1, w2)
}

// recover forces edge ab into the triangulation by flipping the edges that
// cross it until none remain.
func (c *cdt) recover(a, b int) {
	if c.hasEdge(a, b) {
		return
	}
	var queue []edgeID
	for _, t := range c.tris {
		if t.dead {
			continue
		}
		for k := 0; k < 3; k++ {
			u, v := t.v[k], t.v[(k+1)%3]
			if u < v && c.crosses(u, v, a, b) {
				queue = append(queue, edgeID{u, v})
			}
		}
	}
	limit := len(c.tris)*len(c.tris) + 1024
	for steps := 0; len(queue) > 0; steps++ {
		if steps > limit {
			panic(fmt.Sprintf("triangulate: cannot recover edge %v-%v", c.orig[a], c.orig[b]))
		}
		e := queue[0]
		queue = queue[1:]
		u, v := e[0], e[1]
		t1, t2, w1, w2, ok := c.quad(u, v)
		if !ok {
			panic(fmt.Sprintf("triangulate: crossing edge %v-%v lost", c.orig[u], c.orig[v]))
		}
		if !c.convex(u, v, w1, w2) {
			queue = append(queue, e)
			continue
		}
		c.flip(t1, t2, u, v, w1, w2)
		if c.crosses(w1, w2, a, b) {
			queue = append(queue, edgeID{w1, w2})
		}
	}
	if !c.hasEdge(a, b) {
		panic(fmt.Sprintf("triangulate: edge %v-%v missing after recovery", c.orig[a], c.orig[b]))
	}
}

// legalize flips unconstrained edges until every one is locally Delaunay.
func (c *cdt) legalize() {
	var stack []edgeID
	for _, t := range c.tris {
		if t.dead {
			continue
		}
		for k := 0; k < 3; k++ {
			u, v := t.v[k], t.v[(k+1)%3]
			if u < v {
				stack = append(stack, edgeID{u, v})
			}
		}
	}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.fixed[e] {
			continue
		}
		u, v := e[0], e[1]
		t1, t2, w1, w2, ok := c.quad(u, v)
		if !ok {
			continue
		}
		if c.incircle(c.pts[u], c.pts[v], c.pts[w1], c.pts[w2]) <= 0 || !c.convex(u, v, w1, w2) {
			continue
		}
		c.flip(t1, t2, u, v, w1, w2)
		stack = append(stack, edgeID{u, w2}, edgeID{w2, v}, edgeID{v, w1}, edgeID{w1, u})
	}
}

func orient(a, b, c vec) int {
	return sign((b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x))
}

// incircle is positive when d lies strictly inside the circumcircle of the
// counter-clockwise triangle abc.
func (c *cdt) incircle(a, b, cc, d vec) int {
	if c.wide {
		return incircleBig(a, b, cc, d)
	}
	adx, ady := a.x-d.x, a.y-d.y
	bdx, bdy := b.x-d.x, b.y-d.y
	cdx, cdy := cc.x-d.x, cc.y-d.y
	alift := adx*adx + ady*ady
	blift := bdx*bdx + bdy*bdy
	clift := cdx*cdx + cdy*cdy
	return sign(alift*(bdx*cdy-cdx*bdy) - blift*(adx*cdy-cdx*ady) + clift*(adx*bdy-bdx*ady))
}

func incircleBig(a, b, cc, d vec) int {
	sub := func(p, q int64) *big.Int { return big.NewInt(p - q) }
	adx, ady := sub(a.x, d.x), sub(a.y, d.y)
	bdx, bdy := sub(b.x, d.x), sub(b.y, d.y)
	cdx, cdy := sub(cc.x, d.x), sub(cc.y, d.y)
	lift := func(x, y *big.Int) *big.Int {
		r := new(big.Int).Mul(x, x)
		return r.Add(r, new(big.Int).Mul(y, y))
	}
	cross := func(x1, y1, x2, y2 *big.Int) *big.Int {
		r := new(big.Int).Mul(x1, y2)
		return r.Sub(r, new(big.Int).Mul(x2, y1))
	}
	det := new(big.Int).Mul(lift(adx, ady), cross(bdx, bdy, cdx, cdy))
	det.Sub(det, new(big.Int).Mul(lift(bdx, bdy), cross(adx, ady, cdx, cdy)))
	det.Add(det, new(big.Int).Mul(lift(cdx, cdy), cross(adx, ady, bdx, bdy)))
	return det.Sign()
}

func sign(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
