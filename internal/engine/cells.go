package engine

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/twmb/murmur3"
	"golang.org/x/image/draw"
)

// crystallize assigns every pixel the color of its nearest seed, seeds are placed one per radius sized cell with a
// deterministic jitter so the same input always renders the same output
func crystallize(src image.Image, radius float64) image.Image {
	img := clone.AsRGBA(src)
	cell := int(math.Round(radius))
	if cell < 2 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	cols, rows := w/cell+1, h/cell+1

	seeds := make([]image.Point, cols*rows)
	for gy := 0; gy < rows; gy++ {
		for gx := 0; gx < cols; gx++ {
			seeds[gy*cols+gx] = image.Pt(
				gx*cell+jitter(gx, gy, 0, cell),
				gy*cell+jitter(gx, gy, 1, cell),
			)
		}
	}

	dst := image.NewRGBA(b)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			gy := y / cell
			for x := 0; x < w; x++ {
				gx := x / cell

				var nearest image.Point
				nearestDist := math.MaxInt
				for ny := gy - 1; ny <= gy+1; ny++ {
					if ny < 0 || ny >= rows {
						continue
					}

					for nx := gx - 1; nx <= gx+1; nx++ {
						if nx < 0 || nx >= cols {
							continue
						}

						seed := seeds[ny*cols+nx]
						dx, dy := seed.X-x, seed.Y-y
						if dist := dx*dx + dy*dy; dist < nearestDist {
							nearest, nearestDist = seed, dist
						}
					}
				}

				sx, sy := clampInt(nearest.X, 0, w-1), clampInt(nearest.Y, 0, h-1)
				dst.SetRGBA(b.Min.X+x, b.Min.Y+y, img.RGBAAt(b.Min.X+sx, b.Min.Y+sy))
			}
		}
	})

	return dst
}

func jitter(gx, gy, axis, cell int) int {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(gx))
	binary.LittleEndian.PutUint32(buf[4:], uint32(gy))
	binary.LittleEndian.PutUint32(buf[8:], uint32(axis))
	return int(murmur3.Sum32(buf[:]) % uint32(cell))
}

// pixellate averages scale sized blocks by downsampling, then scales back up without interpolation
func pixellate(src image.Image, scale float64) image.Image {
	cell := int(math.Round(scale))
	if cell < 2 {
		return clone.AsRGBA(src)
	}

	b := src.Bounds()
	cols, rows := (b.Dx()+cell-1)/cell, (b.Dy()+cell-1)/cell

	small := image.NewRGBA(image.Rect(0, 0, cols, rows))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), src, b, draw.Src, nil)

	blocks := image.NewRGBA(image.Rect(0, 0, cols*cell, rows*cell))
	draw.NearestNeighbor.Scale(blocks, blocks.Bounds(), small, small.Bounds(), draw.Src, nil)

	dst := image.NewRGBA(b)
	draw.Draw(dst, b, blocks, image.Point{}, draw.Src)
	return dst
}

// vignette darkens pixels by their distance from the center, relative to radius
func vignette(src image.Image, intensity, radius float64) image.Image {
	img := clone.AsRGBA(src)
	if intensity == 0 {
		return img
	}

	radius = math.Max(radius, 0.01)

	b := img.Bounds()
	cx, cy := float64(b.Min.X+b.Max.X)/2, float64(b.Min.Y+b.Max.Y)/2
	maxDist := math.Hypot(float64(b.Dx())/2, float64(b.Dy())/2)

	parallel.Line(b.Dy(), func(start, end int) {
		for y := b.Min.Y + start; y < b.Min.Y+end; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				edge := unit(math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / maxDist / radius)
				factor := 1 - intensity*edge*edge

				c := img.RGBAAt(x, y)
				c.R = clampByte(float64(c.R) * factor)
				c.G = clampByte(float64(c.G) * factor)
				c.B = clampByte(float64(c.B) * factor)
				img.SetRGBA(x, y, c)
			}
		}
	})

	return img
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
