package chart

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	Width  = 700
	Height = 400
	Margin = 50

	ContentType = "image/svg+xml"
)

type Type string

const (
	Bar  Type = "bar"
	Pie  Type = "pie"
	Line Type = "line"
)

var ErrUnknownType = errors.New("unknown chart type")

// ParseType accepts bar, pie or line (any case); empty means bar
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", Bar:
		return Bar, nil
	case Pie:
		return Pie, nil
	case Line:
		return Line, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Point is one labelled value. Order is preserved in the output.
type Point struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type rgb struct{ r, g, b int }

func (c rgb) String() string { return fmt.Sprintf("rgb(%d,%d,%d)", c.r, c.g, c.b) }

var palette = []rgb{
	{65, 105, 225},
	{50, 205, 50},
	{255, 99, 71},
	{75, 0, 130},
	{255, 165, 0},
	{106, 90, 205},
	{220, 20, 60},
	{34, 139, 34},
}

func color(i int) rgb { return palette[i%len(palette)] }

// Render draws data as an SVG document
func Render(t Type, title string, data []Point) []byte {
	c := newCanvas()
	c.text(Width/2, 30, title, `font-size="16" font-weight="bold" text-anchor="middle"`)

	if total(data) == 0 {
		c.text(Width/2, Height/2, "No data available", `font-size="14" fill="gray" text-anchor="middle"`)
		return c.close()
	}

	switch t {
	case Pie:
		c.pie(data)
	case Line:
		c.line(data)
	default:
		c.bars(data)
	}
	return c.close()
}

func total(data []Point) int {
	sum := 0
	for _, p := range data {
		sum += p.Value
	}
	return sum
}

func maxValue(data []Point) int {
	m := 1
	for _, p := range data {
		if p.Value > m {
			m = p.Value
		}
	}
	return m
}

type canvas struct {
	buf bytes.Buffer
}

func newCanvas() *canvas {
	c := &canvas{}
	fmt.Fprintf(&c.buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="Arial, sans-serif">`, Width, Height, Width, Height)
	fmt.Fprintf(&c.buf, `<rect width="%d" height="%d" fill="white"/>`, Width, Height)
	return c
}

func (c *canvas) close() []byte {
	c.buf.WriteString("</svg>")
	return c.buf.Bytes()
}

func (c *canvas) text(x, y float64, s, attrs string) {
	fmt.Fprintf(&c.buf, `<text x="%.1f" y="%.1f" %s>`, x, y, attrs)
	xml.EscapeText(&c.buf, []byte(s))
	c.buf.WriteString("</text>")
}

// plot area below the title
func area() (left, top, right, bottom float64) {
	return Margin, Margin + 20, Width - Margin, Height - Margin
}

func (c *canvas) axes(peak int) {
	left, top, right, bottom := area()
	fmt.Fprintf(&c.buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black" stroke-width="2"/>`, left, top, left, bottom)
	fmt.Fprintf(&c.buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black" stroke-width="2"/>`, left, bottom, right, bottom)

	for i := 0; i <= 5; i++ {
		y := bottom - float64(i)/5*(bottom-top)
		if i > 0 {
			fmt.Fprintf(&c.buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="lightgray" stroke-dasharray="4 4"/>`, left, y, right, y)
		}
		c.text(left-8, y+4, fmt.Sprint(peak*i/5), `font-size="10" text-anchor="end"`)
	}
}

func (c *canvas) bars(data []Point) {
	const spacing = 30.0
	left, top, _, bottom := area()
	peak := maxValue(data)
	c.axes(peak)

	width := (Width - 2*Margin - spacing*float64(len(data)+1)) / float64(len(data))
	if width < 4 {
		width = 4
	}
	for i, p := range data {
		x := left + spacing + float64(i)*(width+spacing)
		h := float64(p.Value) / float64(peak) * (bottom - top)
		fmt.Fprintf(&c.buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="black"/>`,
			x, bottom-h, width, h, color(i))
		c.text(x+width/2, bottom-h-6, fmt.Sprint(p.Value), `font-size="10" text-anchor="middle"`)
		c.text(x+width/2, bottom+16, p.Label, `font-size="10" text-anchor="middle"`)
	}
}

func (c *canvas) line(data []Point) {
	left, top, right, bottom := area()
	// round up to the next multiple of five
	peak := (maxValue(data)/5 + 1) * 5
	c.axes(peak)

	step := 0.0
	if len(data) > 1 {
		step = (right - left) / float64(len(data)-1)
	}

	points := make([]string, len(data))
	for i, p := range data {
		x := left + float64(i)*step
		y := bottom - float64(p.Value)/float64(peak)*(bottom-top)
		points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}
	if len(points) > 1 {
		fmt.Fprintf(&c.buf, `<polyline points="%s" fill="none" stroke="%s" stroke-width="3"/>`, strings.Join(points, " "), color(0))
	}
	for i, p := range data {
		x := left + float64(i)*step
		y := bottom - float64(p.Value)/float64(peak)*(bottom-top)
		fmt.Fprintf(&c.buf, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>`, x, y, color(1))
		c.text(x, bottom+16, p.Label, `font-size="9" text-anchor="middle"`)
	}
}

func (c *canvas) pie(data []Point) {
	_, top, _, bottom := area()
	radius := (bottom - top) / 2
	cx, cy := Margin+radius+20, top+radius
	sum := float64(total(data))

	angle := -math.Pi / 2
	for i, p := range data {
		if p.Value == 0 {
			continue
		}
		share := float64(p.Value) / sum
		sweep := share * 2 * math.Pi
		if share >= 1 {
			fmt.Fprintf(&c.buf, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke="black"/>`, cx, cy, radius, color(i))
		} else {
			x1, y1 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
			x2, y2 := cx+radius*math.Cos(angle+sweep), cy+radius*math.Sin(angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			fmt.Fprintf(&c.buf, `<path d="M%.1f,%.1f L%.1f,%.1f A%.1f,%.1f 0 %d,1 %.1f,%.1f Z" fill="%s" stroke="black"/>`,
				cx, cy, x1, y1, radius, radius, large, x2, y2, color(i))
		}
		// label slices wider than ten degrees
		if sweep > math.Pi/18 {
			mid := angle + sweep/2
			lx, ly := cx+radius*0.75*math.Cos(mid), cy+radius*0.75*math.Sin(mid)
			c.text(lx, ly, fmt.Sprintf("%.0f%%", share*100), `font-size="10" font-weight="bold" text-anchor="middle"`)
		}
		angle += sweep
	}

	legendX, legendY := float64(Width-200), top+10
	for i, p := range data {
		y := legendY + float64(i)*25
		fmt.Fprintf(&c.buf, `<rect x="%.1f" y="%.1f" width="15" height="15" fill="%s" stroke="black"/>`, legendX, y, color(i))
		c.text(legendX+22, y+12, fmt.Sprintf("%s (%d)", p.Label, p.Value), `font-size="10"`)
	}
}
