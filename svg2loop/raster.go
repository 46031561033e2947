package svg2loop

import (
	"fmt"
	"image"
	"image/color"

	p2stypes "png2svg/type"
)

// Rasterize 用奇偶规则填充闭合环，在像素中心 (x+0.5, y+0.5) 取样
// 返回按行优先排列的 width*height 覆盖标记
//
// 环都在整数网格上，只有竖直线段会与水平射线相交：
// 线段 x 坐标大于 px，且 y 区间 [min, max) 覆盖 py 时计一次穿越。
func Rasterize(width, height int, loops []p2stypes.Loop) []bool {
	inside := make([]bool, width*height)
	for _, l := range loops {
		for _, e := range l {
			if e.From.X != e.To.X {
				continue
			}
			y0, y1 := min(e.From.Y, e.To.Y), max(e.From.Y, e.To.Y)
			for y := max(y0, 0); y < min(y1, height); y++ {
				// 射线向右：翻转线段左侧的所有像素
				for x := 0; x < min(e.From.X, width); x++ {
					inside[y*width+x] = !inside[y*width+x]
				}
			}
		}
	}
	return inside
}

// Reconstruct 把文档按 path 顺序逐个栅格化，重建一张非预乘 RGBA 图像
// 被多个 path 覆盖的像素说明区域有重叠，返回 ErrMismatch
func Reconstruct(doc *Document) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, doc.Width, doc.Height))
	covered := make([]bool, doc.Width*doc.Height)
	for pi, p := range doc.Paths {
		mask := Rasterize(doc.Width, doc.Height, p.Loops)
		for i, in := range mask {
			if !in {
				continue
			}
			if covered[i] {
				return nil, fmt.Errorf("%w: pixel %d,%d covered twice (path %d)",
					ErrMismatch, i%doc.Width, i/doc.Width, pi)
			}
			covered[i] = true
			img.SetNRGBA(i%doc.Width, i/doc.Width, p.Color)
		}
	}
	return img, nil
}

// RasterSource 与 image2region.RasterSource 相同的最小接口，避免包之间互相引用
type RasterSource interface {
	Width() int
	Height() int
	NRGBAAt(x, y int) color.NRGBA
}

// Compare 逐像素比较重建图像与源图像
// opaque 为 true 时源图像中 alpha 为 0 的像素必须保持未覆盖
func Compare(src RasterSource, img *image.NRGBA, opaque bool) error {
	b := img.Bounds()
	if b.Dx() != src.Width() || b.Dy() != src.Height() {
		return fmt.Errorf("%w: size %dx%d, want %dx%d",
			ErrMismatch, b.Dx(), b.Dy(), src.Width(), src.Height())
	}
	for y := 0; y < src.Height(); y++ {
		for x := 0; x < src.Width(); x++ {
			want := src.NRGBAAt(x, y)
			if opaque && want.A == 0 {
				want = color.NRGBA{}
			}
			if got := img.NRGBAAt(x, y); got != want {
				return fmt.Errorf("%w: pixel %d,%d is %v, want %v", ErrMismatch, x, y, got, want)
			}
		}
	}
	return nil
}
