package types

import "time"

// Channel identifies one of the four components of a packed ARGB pixel
type Channel int

const (
	Alpha Channel = iota
	Red
	Green
	Blue
)

// Channels lists every channel in packing order (most significant first)
var Channels = [...]Channel{Alpha, Red, Green, Blue}

func (c Channel) String() string {
	switch c {
	case Alpha:
		return "alpha"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return "unknown"
	}
}

// Grid is a fixed-size pixel grid of packed, non-premultiplied ARGB values
type Grid struct {
	Width  int
	Height int
	Pix    []uint32
}

// NewGrid allocates a zeroed grid of the given size
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, width*height),
	}
}

// At returns the packed pixel at (x, y)
func (g *Grid) At(x, y int) uint32 {
	return g.Pix[y*g.Width+x]
}

// Set stores a packed pixel at (x, y)
func (g *Grid) Set(x, y int, v uint32) {
	g.Pix[y*g.Width+x] = v
}

// SameSize reports whether both grids have identical dimensions
func (g *Grid) SameSize(o *Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

// Sample is a named, normalized image ready for comparison
type Sample struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Grid    *Grid     `json:"-"`
}

// PairResult holds the similarity score of one unordered pair
type PairResult struct {
	Index         int     `json:"index"`
	A             string  `json:"a"`
	B             string  `json:"b"`
	Score         float64 `json:"score"`
	NearDuplicate bool    `json:"near_duplicate"`
	Err           error   `json:"-"`
}

// Failed reports whether the comparison could not be scored
func (r PairResult) Failed() bool {
	return r.Err != nil
}
