package p2stypes

import "errors"

var (
	// ErrDecode 输入无法打开或无法解码为图像
	ErrDecode = errors.New("png2svg: could not decode image")
	// ErrDegenerateGeometry 出现零长度（或非轴向）的线段，无法求方向
	ErrDegenerateGeometry = errors.New("png2svg: degenerate geometry")
	// ErrStructural 边集不是合法的流形边界，或拼接时找不到后继边
	ErrStructural = errors.New("png2svg: structural inconsistency")
)
