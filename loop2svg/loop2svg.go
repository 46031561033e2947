package loop2svg

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"

	p2stypes "png2svg/type"
)

const header = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" version="1.1">
`

// Write 把全部区域写成一个 SVG 文档，每个区域一个 <path>
func Write(w io.Writer, width, height int, shapes []p2stypes.Shape) error {
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)

	if _, err := fmt.Fprintf(canvas.Writer, header, width, height); err != nil {
		return err
	}
	for _, s := range shapes {
		canvas.Path(PathData(s.Loops), Style(s.Color))
	}
	canvas.End()

	return bw.Flush()
}

// PathData 生成 d 属性：每个环一个 "M x,y L x,y ... Z" 子路径
func PathData(loops []p2stypes.Loop) string {
	var sb strings.Builder
	for i, l := range loops {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for j, p := range l.Points() {
			if j == 0 {
				fmt.Fprintf(&sb, "M %d,%d", p.X, p.Y)
			} else {
				fmt.Fprintf(&sb, " L %d,%d", p.X, p.Y)
			}
		}
		sb.WriteString(" Z")
	}
	return sb.String()
}

// Style 生成填充样式，不透明度为 alpha/255 保留三位小数
func Style(c color.NRGBA) string {
	return fmt.Sprintf("fill:rgb(%d, %d, %d); fill-opacity:%.3f; stroke:none;",
		c.R, c.G, c.B, float64(c.A)/255)
}
