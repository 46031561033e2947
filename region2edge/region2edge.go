// Package region2edge 计算单个区域的有向单位边界边
package region2edge

import (
	"fmt"
	"image"

	p2stypes "png2svg/type"
)

// side 描述像素一条边的固定朝向：邻居偏移与两个角点偏移
// 沿边行进时区域内部始终在同一侧
type side struct {
	neighbor image.Point
	from, to image.Point
}

// 顺序：西、南、东、北
var sides = [4]side{
	{neighbor: image.Pt(-1, 0), from: image.Pt(0, 0), to: image.Pt(0, 1)}, // 向南
	{neighbor: image.Pt(0, 1), from: image.Pt(0, 1), to: image.Pt(1, 1)},  // 向东
	{neighbor: image.Pt(1, 0), from: image.Pt(1, 1), to: image.Pt(1, 0)},  // 向北
	{neighbor: image.Pt(0, -1), from: image.Pt(1, 0), to: image.Pt(0, 0)}, // 向西
}

// mask 区域在包围盒内的成员位图
type mask struct {
	bounds image.Rectangle
	bits   []bool
}

func newMask(r p2stypes.Region) *mask {
	b := r.Bounds
	if b.Empty() {
		for _, p := range r.Pixels {
			b = b.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
		}
	}
	m := &mask{bounds: b, bits: make([]bool, b.Dx()*b.Dy())}
	for _, p := range r.Pixels {
		m.bits[m.index(p)] = true
	}
	return m
}

func (m *mask) index(p image.Point) int {
	return (p.Y-m.bounds.Min.Y)*m.bounds.Dx() + (p.X - m.bounds.Min.X)
}

// has 包围盒以外（包括网格以外）一律视为不在区域内
func (m *mask) has(p image.Point) bool {
	return p.In(m.bounds) && m.bits[m.index(p)]
}

// Extract 返回区域的边界边集合，外轮廓与孔洞轮廓混在一起
// 边按像素顺序、每个像素按 西/南/东/北 顺序生成
// 同一条有向边出现两次说明区域拓扑不受支持，返回 ErrStructural
func Extract(r p2stypes.Region) ([]p2stypes.Edge, error) {
	m := newMask(r)
	edges := make([]p2stypes.Edge, 0, 4*len(r.Pixels))
	seen := make(map[p2stypes.Edge]struct{}, 4*len(r.Pixels))

	for _, p := range r.Pixels {
		for _, s := range sides {
			if m.has(p.Add(s.neighbor)) {
				continue
			}
			e := p2stypes.Edge{From: p.Add(s.from), To: p.Add(s.to)}
			if _, dup := seen[e]; dup {
				return nil, fmt.Errorf("%w: edge %v generated twice (pixel %d,%d)",
					p2stypes.ErrStructural, e, p.X, p.Y)
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges, nil
}
