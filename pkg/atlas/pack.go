package atlas

import (
	"image"
	"sort"

	"golang.org/x/image/draw"
)

// Page is one packed atlas image.
type Page struct {
	ID      int
	Image   *image.RGBA
	Entries []*Entry
}

// Pack places every entry on a page with shelf packing, tallest first, and
// renders the pages. Pages are cropped to the area they use. Pack may be
// called once; Add panics afterwards.
func (p *Packer) Pack() []*Page {
	if p.packed {
		return p.pages
	}
	p.packed = true

	order := append([]*Entry(nil), p.entries...)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i].Image.Rect, order[j].Image.Rect
		if a.Dy() != b.Dy() {
			return a.Dy() > b.Dy()
		}
		return a.Dx() > b.Dx()
	})

	size, pad := p.opts.PageSize, p.opts.Padding
	var cur *Page
	var x, y, shelf, usedW, usedH int
	flush := func() {
		if cur != nil {
			p.render(cur, usedW, usedH)
			cur = nil
		}
	}
	open := func() {
		flush()
		cur = &Page{ID: len(p.pages)}
		p.pages = append(p.pages, cur)
		x, y, shelf, usedW, usedH = 0, 0, 0, 0, 0
	}

	for _, e := range order {
		w, h := e.Image.Rect.Dx(), e.Image.Rect.Dy()
		if w > size || h > size {
			own := &Page{ID: len(p.pages)}
			p.pages = append(p.pages, own)
			p.place(own, e, 0, 0)
			p.render(own, w, h)
			continue
		}
		if cur == nil {
			open()
		}
		if x+w > size {
			x, y, shelf = 0, y+shelf+pad, 0
		}
		if y+h > size {
			open()
		}
		p.place(cur, e, x, y)
		usedW, usedH = max(usedW, x+w), max(usedH, y+h)
		x += w + pad
		shelf = max(shelf, h)
	}
	flush()
	p.stats.Pages = len(p.pages)
	return p.pages
}

func (p *Packer) place(pg *Page, e *Entry, x, y int) {
	e.Page, e.X, e.Y, e.page = pg.ID, x, y, pg
	pg.Entries = append(pg.Entries, e)
}

func (p *Packer) render(pg *Page, w, h int) {
	pg.Image = image.NewRGBA(image.Rect(0, 0, w, h))
	for _, e := range pg.Entries {
		r := e.Image.Rect.Sub(e.Image.Rect.Min).Add(image.Pt(e.X, e.Y))
		draw.Draw(pg.Image, r, e.Image, e.Image.Rect.Min, draw.Src)
	}
}

// Pages returns the packed pages, or nil before Pack.
func (p *Packer) Pages() []*Page { return p.pages }
