package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DocumentVersion is written to every document.
const DocumentVersion = 1

// Document is an exported mesh: shared vertex arrays and one triangle group
// per atlas page.
type Document struct {
	// Positions holds x, y, z per vertex in the output coordinate system.
	Positions []float64
	// UVs holds u, v per vertex, v growing downwards.
	UVs       []float64
	Materials []Material
}

// Material is the triangles textured by one atlas page.
type Material struct {
	ID      int
	Texture string
	// Indices holds three vertex indices per triangle, counter-clockwise
	// seen from outside.
	Indices []uint32
}

// VertexCount returns the number of vertices.
func (d *Document) VertexCount() int { return len(d.Positions) / 3 }

// TriangleCount returns the number of triangles over all materials.
func (d *Document) TriangleCount() int {
	n := 0
	for _, m := range d.Materials {
		n += len(m.Indices) / 3
	}
	return n
}

type xmlDocument struct {
	XMLName   xml.Name      `xml:"mesh"`
	Version   int           `xml:"version,attr"`
	Positions xmlList       `xml:"positions"`
	UVs       xmlList       `xml:"uvs"`
	Materials []xmlMaterial `xml:"materials>material"`
}

type xmlList struct {
	Count  int    `xml:"count,attr"`
	Values string `xml:",chardata"`
}

type xmlMaterial struct {
	ID        int     `xml:"id,attr"`
	Texture   string  `xml:"texture,attr"`
	Triangles xmlList `xml:"triangles"`
}

// Encode writes d as indented XML.
func (d *Document) Encode(w io.Writer) error {
	x := xmlDocument{
		Version:   DocumentVersion,
		Positions: xmlList{Count: d.VertexCount(), Values: joinFloats(d.Positions)},
		UVs:       xmlList{Count: len(d.UVs) / 2, Values: joinFloats(d.UVs)},
	}
	for _, m := range d.Materials {
		x.Materials = append(x.Materials, xmlMaterial{
			ID:        m.ID,
			Texture:   m.Texture,
			Triangles: xmlList{Count: len(m.Indices) / 3, Values: joinInts(m.Indices)},
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// DecodeDocument reads a document written by Encode.
func DecodeDocument(r io.Reader) (*Document, error) {
	var x xmlDocument
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if x.Version != DocumentVersion {
		return nil, fmt.Errorf("decode document: unsupported version %d", x.Version)
	}
	d := &Document{}
	var err error
	if d.Positions, err = parseFloats(x.Positions, 3); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	if d.UVs, err = parseFloats(x.UVs, 2); err != nil {
		return nil, fmt.Errorf("decode uvs: %w", err)
	}
	for _, xm := range x.Materials {
		m := Material{ID: xm.ID, Texture: xm.Texture}
		fs := strings.Fields(xm.Triangles.Values)
		if len(fs) != 3*xm.Triangles.Count {
			return nil, fmt.Errorf("decode material %d: %d indices for %d triangles", xm.ID, len(fs), xm.Triangles.Count)
		}
		for _, f := range fs {
			i, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("decode material %d: %w", xm.ID, err)
			}
			m.Indices = append(m.Indices, uint32(i))
		}
		d.Materials = append(d.Materials, m)
	}
	return d, nil
}

func joinFloats(vs []float64) string {
	var b strings.Builder
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

func joinInts(vs []uint32) string {
	var b strings.Builder
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String()
}

func parseFloats(l xmlList, stride int) ([]float64, error) {
	fs := strings.Fields(l.Values)
	if len(fs) != stride*l.Count {
		return nil, fmt.Errorf("%d values for count %d", len(fs), l.Count)
	}
	out := make([]float64, len(fs))
	for i, f := range fs {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
