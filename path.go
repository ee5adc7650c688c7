package ttf

import "math"

// Pather is an interface to append a glyph's path to, such as canvas.Path.
type Pather interface {
	MoveTo(float64, float64)
	LineTo(float64, float64)
	QuadTo(float64, float64, float64, float64)
	CubeTo(float64, float64, float64, float64, float64, float64)
	Close()
}

// ToPath appends the glyph outline to p, placed at (x,y) and scaled by f. Contours starting with
// off-curve points begin at the first on-curve point or at the implied midpoint of two off-curve points.
func (glyph *Glyph) ToPath(p Pather, x, y, f float64) {
	px := func(i int) float64 { return x + f*float64(glyph.Points[i].X) }
	py := func(i int) float64 { return y + f*float64(glyph.Points[i].Y) }
	midX := func(i, j int) float64 { return x + f*(float64(glyph.Points[i].X)+float64(glyph.Points[j].X))/2.0 }
	midY := func(i, j int) float64 { return y + f*(float64(glyph.Points[i].Y)+float64(glyph.Points[j].Y))/2.0 }

	i := 0
	for _, endPoint := range glyph.EndPtsOfContours {
		end := int(endPoint)
		if len(glyph.Points) <= end {
			return
		}

		j := i
		first := true
		firstOff := false
		prevOff := false
		startX, startY := 0.0, 0.0
		for ; i <= end; i++ {
			onCurve := glyph.Points[i].OnCurve
			if first {
				if onCurve {
					startX, startY = px(i), py(i)
					p.MoveTo(startX, startY)
					first = false
					prevOff = false
				} else if !prevOff {
					// first point is off
					firstOff = true
					prevOff = true
				} else {
					// first and second point are off
					startX, startY = midX(i-1, i), midY(i-1, i)
					p.MoveTo(startX, startY)
					first = false
				}
			} else if !prevOff {
				if onCurve {
					p.LineTo(px(i), py(i))
				} else {
					prevOff = true
				}
			} else {
				if onCurve {
					p.QuadTo(px(i-1), py(i-1), px(i), py(i))
					prevOff = false
				} else {
					p.QuadTo(px(i-1), py(i-1), midX(i-1, i), midY(i-1, i))
				}
			}
		}
		if first {
			// single off-curve point
			p.MoveTo(px(j), py(j))
		} else if firstOff {
			if prevOff {
				p.QuadTo(px(i-1), py(i-1), midX(i-1, j), midY(i-1, j))
			}
			p.QuadTo(px(j), py(j), startX, startY)
		} else if prevOff {
			p.QuadTo(px(i-1), py(i-1), startX, startY)
		}
		p.Close()
	}
}

// PathBounds returns the bounding box of the glyph's control points, which for quadratic outlines
// contains the outline itself. It is zero for empty glyphs.
func (glyph *Glyph) PathBounds() (xmin, ymin, xmax, ymax float64) {
	if glyph.IsEmpty() {
		return 0.0, 0.0, 0.0, 0.0
	}
	p := &boundsPather{
		XMin: math.Inf(1),
		YMin: math.Inf(1),
		XMax: math.Inf(-1),
		YMax: math.Inf(-1),
	}
	glyph.ToPath(p, 0.0, 0.0, 1.0)
	return p.XMin, p.YMin, p.XMax, p.YMax
}

type boundsPather struct {
	XMin, XMax, YMin, YMax float64
}

func (p *boundsPather) add(x, y float64) {
	p.XMin = math.Min(p.XMin, x)
	p.XMax = math.Max(p.XMax, x)
	p.YMin = math.Min(p.YMin, y)
	p.YMax = math.Max(p.YMax, y)
}

func (p *boundsPather) MoveTo(x float64, y float64) {
	p.add(x, y)
}

func (p *boundsPather) LineTo(x float64, y float64) {
	p.add(x, y)
}

func (p *boundsPather) QuadTo(cpx float64, cpy float64, x float64, y float64) {
	p.add(cpx, cpy)
	p.add(x, y)
}

func (p *boundsPather) CubeTo(cpx1 float64, cpy1 float64, cpx2 float64, cpy2 float64, x float64, y float64) {
	p.add(cpx1, cpy1)
	p.add(cpx2, cpy2)
	p.add(x, y)
}

func (p *boundsPather) Close() {
}
