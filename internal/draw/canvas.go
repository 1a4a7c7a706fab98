// Package draw renders to ANSI terminals using half-block characters.
package draw

import (
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// maxChunkSize is the maximum bytes to write at once for smooth SSH/network flow.
const maxChunkSize = 1400

// Canvas is a pixel buffer with 2x vertical resolution: every terminal cell
// holds two square-ish pixels rendered as half blocks.
type Canvas struct {
	cols, rows int    // Terminal cells
	width      int    // Pixels across (== cols)
	height     int    // Pixels down (== rows*2)
	pixels     []bool // [y*width + x]
	drawn      []rune // Last rune written per cell, 0 when blank

	// Offset for centering the render area inside a larger terminal.
	offsetCol int
	offsetRow int

	renderBuf       strings.Builder
	numBuf          [20]byte
	intersectionBuf []float64
}

// NewCanvas creates a canvas covering cols x rows terminal cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize changes the cell dimensions, reallocating only when they differ.
func (c *Canvas) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	if cols == c.cols && rows == c.rows {
		return
	}
	c.cols, c.rows = cols, rows
	c.width, c.height = cols, rows*2
	c.pixels = make([]bool, c.width*c.height)
	c.drawn = make([]rune, cols*rows)
}

// SetOffset sets the 0-based terminal column and row where the canvas starts.
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (width, height int) { return c.width, c.height }

// Cols returns the canvas width in terminal cells.
func (c *Canvas) Cols() int { return c.cols }

// Rows returns the canvas height in terminal cells.
func (c *Canvas) Rows() int { return c.rows }

// Clear resets all pixels.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// ForceRedraw forgets what is on screen so the next Render writes every
// non-empty cell. Use after the terminal was cleared.
func (c *Canvas) ForceRedraw() {
	clear(c.drawn)
}

// Set turns on the pixel at (x, y). Out-of-range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x >= 0 && x < c.width && y >= 0 && y < c.height {
		c.pixels[y*c.width+x] = true
	}
}

// At reports whether the pixel at (x, y) is on.
func (c *Canvas) At(x, y int) bool {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return false
	}
	return c.pixels[y*c.width+x]
}

// DrawLine draws a line with Bresenham's algorithm.
func (c *Canvas) DrawLine(p1, p2 mgl64.Vec2) {
	x1, y1 := int(math.Round(p1[0])), int(math.Round(p1[1]))
	x2, y2 := int(math.Round(p2[0])), int(math.Round(p2[1]))

	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		c.Set(x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawPolygon draws a closed polygon, optionally filled.
func (c *Canvas) DrawPolygon(points []mgl64.Vec2, filled bool) {
	if len(points) < 3 {
		return
	}
	if filled {
		c.fillPolygon(points)
	}
	n := len(points)
	for i := 0; i < n; i++ {
		c.DrawLine(points[i], points[(i+1)%n])
	}
}

// fillPolygon fills a polygon with a scanline pass sampling pixel centres.
func (c *Canvas) fillPolygon(points []mgl64.Vec2) {
	minY, maxY := points[0][1], points[0][1]
	for _, p := range points {
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}

	yStart := max(int(math.Floor(minY)), 0)
	yEnd := min(int(math.Ceil(maxY)), c.height-1)

	n := len(points)
	for y := yStart; y <= yEnd; y++ {
		scanY := float64(y) + 0.5
		xs := c.intersectionBuf[:0]
		for i := 0; i < n; i++ {
			p1, p2 := points[i], points[(i+1)%n]
			if (p1[1] <= scanY && p2[1] > scanY) || (p2[1] <= scanY && p1[1] > scanY) {
				t := (scanY - p1[1]) / (p2[1] - p1[1])
				xs = append(xs, p1[0]+t*(p2[0]-p1[0]))
			}
		}
		c.intersectionBuf = xs

		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				c.Set(x, y)
			}
		}
	}
}

// Render writes the cells that changed since the previous Render. Cells that
// became empty are overwritten with a space.
func (c *Canvas) Render(w io.Writer) error {
	c.renderBuf.Reset()
	c.renderBuf.Grow(c.cols * c.rows * 4)

	for row := 0; row < c.rows; row++ {
		top := row * 2 * c.width
		bottom := top + c.width
		for col := 0; col < c.cols; col++ {
			var ch rune
			switch t, b := c.pixels[top+col], c.pixels[bottom+col]; {
			case t && b:
				ch = BlockFull
			case t:
				ch = BlockUpperHalf
			case b:
				ch = BlockLowerHalf
			}
			cell := row*c.cols + col
			if ch == c.drawn[cell] {
				continue
			}
			c.drawn[cell] = ch
			c.moveCursor(col+1+c.offsetCol, row+1+c.offsetRow)
			if ch == 0 {
				c.renderBuf.WriteByte(' ')
			} else {
				c.renderBuf.WriteRune(ch)
			}
		}
	}

	return writeChunked(w, c.renderBuf.String())
}

func (c *Canvas) moveCursor(col, row int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

// writeChunked writes data in pieces of at most maxChunkSize bytes.
func writeChunked(w io.Writer, data string) error {
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
