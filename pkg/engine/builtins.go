package engine

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/aquilax/go-perlin"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/voxmesh/pkg/voxel"
)

// DefaultMaxVoxels bounds the voxels one script may create.
const DefaultMaxVoxels = 1 << 21

// ErrTooManyVoxels is returned by builtins once the voxel limit is reached.
var ErrTooManyVoxels = errors.New("too many voxels")

var defaultColor = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}

// sexpColor carries an (rgb r g b) value between builtins.
type sexpColor struct {
	c color.RGBA
}

func (s *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgb %d %d %d)", s.c.R, s.c.G, s.c.B)
}
func (s *sexpColor) Type() *zygo.RegisteredType { return nil }

// builder applies script builtins to a store. The current layer starts as
// the store's default layer.
type builder struct {
	store *voxel.Store
	layer int
	limit int
}

func newBuilder(store *voxel.Store, limit int) *builder {
	return &builder{store: store, layer: store.Layers()[0], limit: limit}
}

// put stores one voxel on the current layer, enforcing the limit for new
// positions.
func (b *builder) put(v voxel.Voxel) (voxel.Voxel, error) {
	v.Layer = b.layer
	if _, ok := b.store.Get(b.layer, v.Pos); !ok && b.limit > 0 && b.store.Count() >= b.limit {
		return voxel.Voxel{}, fmt.Errorf("%w: limit is %d", ErrTooManyVoxels, b.limit)
	}
	return b.store.Put(v)
}

// useLayer makes the named layer current, creating it if needed.
func (b *builder) useLayer(name string) int {
	if l := b.store.LayerByName(name); l != nil {
		b.layer = l.ID
	} else {
		b.layer = b.store.AddLayer(name)
	}
	return b.layer
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	positional []zygo.Sexp
	kw         map[string]zygo.Sexp
}

// parseArgs splits args into positional values and keyword pairs. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	out := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			out.positional = append(out.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			out.kw[name] = args[i+1]
			i++
		} else {
			out.kw[name] = zygo.SexpNull
		}
	}
	return out
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val != float64(int(v.Val)) {
			return 0, fmt.Errorf("expected integer, got %v", v.Val)
		}
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	if s == zygo.SexpNull {
		return true, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts either a :keyword or a plain string.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toColor accepts an (rgb ...) value or a "#rrggbb" string.
func toColor(s zygo.Sexp) (color.RGBA, error) {
	switch v := s.(type) {
	case *sexpColor:
		return v.c, nil
	case *zygo.SexpStr:
		return voxel.ParseColor(v.S)
	}
	return color.RGBA{}, fmt.Errorf("expected color, got %T (%s)", s, s.SexpString(nil))
}

func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ints converts exactly n positional arguments to integers.
func ints(fn string, args []zygo.Sexp, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d positional arguments, got %d", fn, n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := toInt(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// kwInt reads an optional integer keyword.
func (a kwArgs) kwInt(fn, name string, def int) (int, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, name, err)
	}
	return n, nil
}

// style reads the :color and texture keywords shared by the shape builtins.
func (a kwArgs) style(fn string) (voxel.Voxel, error) {
	v := voxel.Voxel{Color: defaultColor}
	if c, ok := a.kw["color"]; ok {
		col, err := toColor(c)
		if err != nil {
			return v, fmt.Errorf("%s: color: %w", fn, err)
		}
		v.Color = col
	}
	t, ok := a.kw["texture"]
	if !ok {
		return v, nil
	}
	id, err := toInt(t)
	if err != nil {
		return v, fmt.Errorf("%s: texture: %w", fn, err)
	}
	rot, err := a.kwInt(fn, "rotation", 0)
	if err != nil {
		return v, err
	}
	ref := voxel.TextureRef{ID: id, Rotation: uint8(((rot % 4) + 4) % 4)}
	for name, dst := range map[string]*bool{"flip-u": &ref.FlipU, "flip-v": &ref.FlipV} {
		if f, ok := a.kw[name]; ok {
			if *dst, err = toBool(f); err != nil {
				return v, fmt.Errorf("%s: %s: %w", fn, name, err)
			}
		}
	}
	faces := voxel.Directions[:]
	if f, ok := a.kw["face"]; ok {
		s, err := toKeywordString(f)
		if err != nil {
			return v, fmt.Errorf("%s: face: %w", fn, err)
		}
		d, err := voxel.ParseDirection(s)
		if err != nil {
			return v, fmt.Errorf("%s: face: %w", fn, err)
		}
		faces = []voxel.Direction{d}
	}
	for _, d := range faces {
		v.Textures[d] = ref
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// (rgb 255 128 0)
	env.AddFunction("rgb", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		n, err := ints("rgb", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		for i, c := range n {
			if c < 0 || c > 255 {
				return zygo.SexpNull, fmt.Errorf("rgb: component %d out of range: %d", i+1, c)
			}
		}
		return &sexpColor{c: color.RGBA{R: uint8(n[0]), G: uint8(n[1]), B: uint8(n[2]), A: 0xff}}, nil
	})

	// (layer "trim" :visible false)
	env.AddFunction("layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("layer: expected a name")
		}
		n, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layer: %w", err)
		}
		id := b.useLayer(n)
		if v, ok := pa.kw["visible"]; ok {
			vis, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: visible: %w", err)
			}
			if err := b.store.SetVisible(id, vis); err != nil {
				return zygo.SexpNull, err
			}
		}
		return &zygo.SexpInt{Val: int64(id)}, nil
	})

	// (voxel 0 1 2 :color "#ff0000" :texture 3 :rotation 1 :face "+y")
	env.AddFunction("voxel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p, err := ints("voxel", pa.positional, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := pa.style("voxel")
		if err != nil {
			return zygo.SexpNull, err
		}
		v.Pos = voxel.Position{X: p[0], Y: p[1], Z: p[2]}
		stored, err := b.put(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("voxel: %w", err)
		}
		return &zygo.SexpInt{Val: stored.ID}, nil
	})

	// (box x0 y0 z0 x1 y1 z1 :color c) fills the half-open box.
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		n, err := ints("box", pa.positional, 6)
		if err != nil {
			return zygo.SexpNull, err
		}
		v, err := pa.style("box")
		if err != nil {
			return zygo.SexpNull, err
		}
		count := 0
		for x := min(n[0], n[3]); x < max(n[0], n[3]); x++ {
			for y := min(n[1], n[4]); y < max(n[1], n[4]); y++ {
				for z := min(n[2], n[5]); z < max(n[2], n[5]); z++ {
					v.Pos = voxel.Position{X: x, Y: y, Z: z}
					if _, err := b.put(v); err != nil {
						return zygo.SexpNull, fmt.Errorf("box: %w", err)
					}
					count++
				}
			}
		}
		return &zygo.SexpInt{Val: int64(count)}, nil
	})

	// (sphere cx cy cz r :color c)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		n, err := ints("sphere", pa.positional, 4)
		if err != nil {
			return zygo.SexpNull, err
		}
		r := n[3]
		if r < 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: negative radius %d", r)
		}
		v, err := pa.style("sphere")
		if err != nil {
			return zygo.SexpNull, err
		}
		count := 0
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				for dz := -r; dz <= r; dz++ {
					if dx*dx+dy*dy+dz*dz > r*r {
						continue
					}
					v.Pos = voxel.Position{X: n[0] + dx, Y: n[1] + dy, Z: n[2] + dz}
					if _, err := b.put(v); err != nil {
						return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
					}
					count++
				}
			}
		}
		return &zygo.SexpInt{Val: int64(count)}, nil
	})

	// (terrain :width 32 :depth 32 :height 8 :seed 7 :color c)
	// Columns grow up the Y axis from y = 0 and are at least one voxel tall.
	env.AddFunction("terrain", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		w, err := pa.kwInt("terrain", "width", 16)
		if err != nil {
			return zygo.SexpNull, err
		}
		d, err := pa.kwInt("terrain", "depth", w)
		if err != nil {
			return zygo.SexpNull, err
		}
		h, err := pa.kwInt("terrain", "height", 8)
		if err != nil {
			return zygo.SexpNull, err
		}
		seed, err := pa.kwInt("terrain", "seed", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if w <= 0 || d <= 0 || h <= 0 {
			return zygo.SexpNull, fmt.Errorf("terrain: width, depth and height must be positive")
		}
		scale := 0.08
		if s, ok := pa.kw["scale"]; ok {
			if scale, err = toFloat64(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("terrain: scale: %w", err)
			}
		}
		v, err := pa.style("terrain")
		if err != nil {
			return zygo.SexpNull, err
		}
		noise := perlin.NewPerlin(2, 2, 3, int64(seed))
		count := 0
		for x := 0; x < w; x++ {
			for z := 0; z < d; z++ {
				n := noise.Noise2D(float64(x)*scale, float64(z)*scale)
				top := 1 + int((n+1)/2*float64(h-1)+0.5)
				top = max(1, min(h, top))
				for y := 0; y < top; y++ {
					v.Pos = voxel.Position{X: x, Y: y, Z: z}
					if _, err := b.put(v); err != nil {
						return zygo.SexpNull, fmt.Errorf("terrain: %w", err)
					}
					count++
				}
			}
		}
		return &zygo.SexpInt{Val: int64(count)}, nil
	})

	// (remove x y z) on the current layer.
	env.AddFunction("remove", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		p, err := ints("remove", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		ok := b.store.Remove(b.layer, voxel.Position{X: p[0], Y: p[1], Z: p[2]})
		return &zygo.SexpBool{Val: ok}, nil
	})

	// (paint x y z c) recolors an existing voxel on the current layer.
	env.AddFunction("paint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("paint: expected x y z color")
		}
		p, err := ints("paint", args[:3], 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		c, err := toColor(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("paint: %w", err)
		}
		ok := b.store.SetColor(b.layer, voxel.Position{X: p[0], Y: p[1], Z: p[2]}, c)
		return &zygo.SexpBool{Val: ok}, nil
	})

	// (voxels [[0 0 0] [1 0 0]] :color c) places a list of points. A quoted
	// list, (quote ((0 0 0) (1 0 0))), works too.
	env.AddFunction("voxels", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("voxels: expected a list of points")
		}
		pts, err := sexpListToSlice(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("voxels: %w", err)
		}
		v, err := pa.style("voxels")
		if err != nil {
			return zygo.SexpNull, err
		}
		for i, s := range pts {
			xyz, err := sexpListToSlice(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("voxels: point %d: %w", i, err)
			}
			p, err := ints("voxels", xyz, 3)
			if err != nil {
				return zygo.SexpNull, err
			}
			v.Pos = voxel.Position{X: p[0], Y: p[1], Z: p[2]}
			if _, err := b.put(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("voxels: %w", err)
			}
		}
		return &zygo.SexpInt{Val: int64(len(pts))}, nil
	})
}
