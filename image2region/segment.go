package image2region

import (
	"image"

	"png2svg/logger"
	p2stypes "png2svg/type"
)

// 四连通邻居：右、下、左、上
var neighborOffsets = [4]image.Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Segment 把图像划分为同色的最大四连通区域
//
// 按行优先顺序扫描，每遇到一个未访问的像素就从它开始做广度优先填充，
// 只经过颜色完全相同的邻居。opaque 为 true 时 alpha 为 0 的像素既不作为种子也不被遍历。
// 已访问标记只在本次调用内有效。
func Segment(src RasterSource, opaque bool) *p2stypes.ColorRegions {
	w, h := src.Width(), src.Height()
	result := p2stypes.NewColorRegions()
	seen := make([]bool, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i0 := y*w + x
			if seen[i0] {
				continue
			}
			c := src.NRGBAAt(x, y)
			if opaque && c.A == 0 {
				continue
			}
			seen[i0] = true
			queue := []image.Point{{x, y}}
			bounds := image.Rect(x, y, x+1, y+1)

			for qi := 0; qi < len(queue); qi++ {
				p := queue[qi]
				bounds = bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				for _, d := range neighborOffsets {
					n := p.Add(d)
					if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
						continue
					}
					ni := n.Y*w + n.X
					if seen[ni] || src.NRGBAAt(n.X, n.Y) != c {
						continue
					}
					seen[ni] = true
					queue = append(queue, n)
				}
			}

			result.Add(p2stypes.Region{Color: c, Pixels: queue, Bounds: bounds})
		}
	}

	logger.L().Debug("segmented image",
		"width", w, "height", h,
		"colors", len(result.Colors()), "regions", result.Len())
	return result
}
