// Package edge2loop 把区域的有向边界边拼接成闭合环
//
// 每次从剩余边中取最小的一条作为起点，然后在当前终点处按 右转、直行、左转
// 的优先级寻找后继边（从不掉头），直到回到起点。固定的转向优先级决定了
// 外轮廓与孔洞在同一顶点相接时各自如何闭合，不需要单独的孔洞检测。
package edge2loop

import (
	"cmp"
	"fmt"
	"image"
	"slices"

	p2stypes "png2svg/type"
)

// turnPriority 候选方向的尝试顺序
var turnPriority = [3]func(p2stypes.Direction) p2stypes.Direction{
	p2stypes.Direction.Right,
	func(d p2stypes.Direction) p2stypes.Direction { return d },
	p2stypes.Direction.Left,
}

// Join 消耗全部边，每条恰好一次，返回闭合环列表
// simplify 为 true 时合并共线的连续边（包括跨越起点接缝的一对）
func Join(edges []p2stypes.Edge, simplify bool) ([]p2stypes.Loop, error) {
	remaining := make(map[p2stypes.Edge]struct{}, len(edges))
	for _, e := range edges {
		remaining[e] = struct{}{}
	}
	seeds, err := seedOrder(edges)
	if err != nil {
		return nil, err
	}

	var loops []p2stypes.Loop
	next := 0
	for len(remaining) > 0 {
		for {
			if _, ok := remaining[seeds[next]]; ok {
				break
			}
			next++
		}
		first := seeds[next]
		delete(remaining, first)

		loop, err := walk(first, remaining, simplify)
		if err != nil {
			return nil, err
		}
		loops = append(loops, loop)
	}
	return loops, nil
}

// walk 从 first 出发走完一个环
func walk(first p2stypes.Edge, remaining map[p2stypes.Edge]struct{}, simplify bool) (p2stypes.Loop, error) {
	loop := p2stypes.Loop{first}
	start := first.From

	for loop[len(loop)-1].To != start {
		last := loop[len(loop)-1]
		dir, err := last.Direction()
		if err != nil {
			return nil, err
		}

		found := false
		for i, turn := range turnPriority {
			cand := p2stypes.Edge{From: last.To, To: last.To.Add(turn(dir).Offset())}
			if _, ok := remaining[cand]; !ok {
				continue
			}
			delete(remaining, cand)
			if i == 1 && simplify {
				loop[len(loop)-1].To = cand.To
			} else {
				loop = append(loop, cand)
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("%w: no connecting edge at %d,%d heading %v",
				p2stypes.ErrStructural, last.To.X, last.To.Y, dir)
		}
	}

	if simplify && len(loop) > 1 {
		d0, err := loop[0].Direction()
		if err != nil {
			return nil, err
		}
		dn, err := loop[len(loop)-1].Direction()
		if err != nil {
			return nil, err
		}
		if d0 == dn {
			loop[len(loop)-1].To = loop[0].To
			loop = loop[1:]
		}
	}
	return loop, nil
}

// seedOrder 按 (起点 y, 起点 x, 方向) 排序，作为确定的起始边选择顺序
func seedOrder(edges []p2stypes.Edge) ([]p2stypes.Edge, error) {
	type keyed struct {
		e   p2stypes.Edge
		dir p2stypes.Direction
	}
	ks := make([]keyed, len(edges))
	for i, e := range edges {
		d, err := e.Direction()
		if err != nil {
			return nil, err
		}
		ks[i] = keyed{e, d}
	}
	slices.SortFunc(ks, func(a, b keyed) int {
		return cmp.Or(
			cmp.Compare(a.e.From.Y, b.e.From.Y),
			cmp.Compare(a.e.From.X, b.e.From.X),
			cmp.Compare(a.dir, b.dir),
		)
	})
	out := make([]p2stypes.Edge, len(ks))
	for i, k := range ks {
		out[i] = k.e
	}
	return out, nil
}

// CheckBalanced 检查每个顶点的入度是否等于出度
func CheckBalanced(edges []p2stypes.Edge) error {
	degree := make(map[image.Point]int)
	for _, e := range edges {
		degree[e.From]++
		degree[e.To]--
	}
	for v, d := range degree {
		if d != 0 {
			return fmt.Errorf("%w: vertex %d,%d has out-degree minus in-degree %d",
				p2stypes.ErrStructural, v.X, v.Y, d)
		}
	}
	return nil
}

// Area 用鞋带公式计算环的有向面积（像素单位）
// 按 region2edge 的边朝向，外轮廓为负，孔洞为正
func Area(l p2stypes.Loop) int {
	s := 0
	for _, e := range l {
		s += e.From.X*e.To.Y - e.To.X*e.From.Y
	}
	return s / 2
}

// Vertices 统计所有环的顶点总数
func Vertices(loops []p2stypes.Loop) int {
	n := 0
	for _, l := range loops {
		n += len(l)
	}
	return n
}
