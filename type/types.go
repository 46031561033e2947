package p2stypes

import (
	"fmt"
	"image"
	"image/color"
)

// Direction 表示网格上的四个方向，按屏幕坐标（y 向下）顺时针排列
type Direction int

const (
	East Direction = iota
	South
	West
	North
)

var directionOffsets = [4]image.Point{
	East:  {1, 0},
	South: {0, 1},
	West:  {-1, 0},
	North: {0, -1},
}

var directionNames = [4]string{"east", "south", "west", "north"}

// Offset 返回该方向的单位步长
func (d Direction) Offset() image.Point {
	return directionOffsets[d]
}

// Right 右转（顺时针）
func (d Direction) Right() Direction { return (d + 1) % 4 }

// Left 左转（逆时针）
func (d Direction) Left() Direction { return (d + 3) % 4 }

// Reverse 掉头
func (d Direction) Reverse() Direction { return (d + 2) % 4 }

func (d Direction) String() string {
	if d < 0 || d > North {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Edge 表示网格顶点之间的一条有向线段
// 边界提取得到的都是单位长度的边，简化模式下会合并成更长的共线线段
type Edge struct {
	From, To image.Point
}

// Direction 计算线段的行进方向
// 长度为零或不沿坐标轴的线段返回 ErrDegenerateGeometry
func (e Edge) Direction() (Direction, error) {
	d := e.To.Sub(e.From)
	switch {
	case d.X > 0 && d.Y == 0:
		return East, nil
	case d.X < 0 && d.Y == 0:
		return West, nil
	case d.X == 0 && d.Y > 0:
		return South, nil
	case d.X == 0 && d.Y < 0:
		return North, nil
	}
	return 0, fmt.Errorf("%w: cannot take direction of %v", ErrDegenerateGeometry, e)
}

func (e Edge) String() string {
	return fmt.Sprintf("%d,%d->%d,%d", e.From.X, e.From.Y, e.To.X, e.To.Y)
}

// Loop 表示一条闭合路径，最后一条线段的终点等于第一条线段的起点
type Loop []Edge

// Points 按遍历顺序返回环上的顶点（不重复起点）
func (l Loop) Points() []image.Point {
	pts := make([]image.Point, len(l))
	for i, e := range l {
		pts[i] = e.From
	}
	return pts
}

// Closed 判断环是否首尾相接
func (l Loop) Closed() bool {
	return len(l) > 0 && l[0].From == l[len(l)-1].To
}

// Region 表示同一颜色的一个最大四连通像素块
type Region struct {
	Color  color.NRGBA
	Pixels []image.Point
	Bounds image.Rectangle // 像素包围盒
}

// Shape 表示拼接完成的一个区域：颜色加上它的全部闭合环（外轮廓和孔洞）
type Shape struct {
	Color color.NRGBA
	Loops []Loop
}

// ColorRegions 颜色到区域列表的有序映射，颜色按第一次扫描到的顺序排列
type ColorRegions struct {
	colors  []color.NRGBA
	regions map[color.NRGBA][]Region
}

func NewColorRegions() *ColorRegions {
	return &ColorRegions{regions: make(map[color.NRGBA][]Region)}
}

// Add 追加一个区域，保持颜色的首次出现顺序
func (cr *ColorRegions) Add(r Region) {
	if _, ok := cr.regions[r.Color]; !ok {
		cr.colors = append(cr.colors, r.Color)
	}
	cr.regions[r.Color] = append(cr.regions[r.Color], r)
}

// Colors 返回颜色列表（首次出现顺序）
func (cr *ColorRegions) Colors() []color.NRGBA {
	return cr.colors
}

// Regions 返回某个颜色的全部区域（发现顺序）
func (cr *ColorRegions) Regions(c color.NRGBA) []Region {
	return cr.regions[c]
}

// Len 返回区域总数
func (cr *ColorRegions) Len() int {
	n := 0
	for _, rs := range cr.regions {
		n += len(rs)
	}
	return n
}

// All 按 颜色顺序 -> 区域顺序 展开全部区域
func (cr *ColorRegions) All() []Region {
	all := make([]Region, 0, cr.Len())
	for _, c := range cr.colors {
		all = append(all, cr.regions[c]...)
	}
	return all
}
