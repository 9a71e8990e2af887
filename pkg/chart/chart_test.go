package chart

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{"": Bar, "bar": Bar, "PIE": Pie, " line ": Line} {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseType("donut")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func sample() []Point {
	return []Point{{"Sunday", 3}, {"Monday", 0}, {"Tuesday", 7}, {"<Wed>", 1}}
}

func TestRenderProducesWellFormedSVG(t *testing.T) {
	for _, typ := range []Type{Bar, Pie, Line} {
		t.Run(string(typ), func(t *testing.T) {
			out := Render(typ, "Reservations & Days", sample())

			var root struct {
				XMLName xml.Name
				Width   int `xml:"width,attr"`
				Height  int `xml:"height,attr"`
			}
			require.NoError(t, xml.Unmarshal(out, &root))
			assert.Equal(t, "svg", root.XMLName.Local)
			assert.Equal(t, Width, root.Width)
			assert.Equal(t, Height, root.Height)

			s := string(out)
			assert.Contains(t, s, "Reservations &amp; Days")
			assert.Contains(t, s, "&lt;Wed&gt;")
			assert.Contains(t, s, "rgb(65,105,225)")
		})
	}
}

func TestRenderEmptyData(t *testing.T) {
	out := string(Render(Bar, "Empty", []Point{{"Jan 2024", 0}}))
	assert.Contains(t, out, "No data available")
	assert.False(t, strings.Contains(out, "<rect x="))
}

func TestPieSingleSliceIsFullCircle(t *testing.T) {
	out := string(Render(Pie, "One", []Point{{"5 Stars", 4}, {"1 Star", 0}}))
	assert.Contains(t, out, "<circle")
	assert.Contains(t, out, "100%")
}
