package svg2loop

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strconv"
	"strings"
	"sync"

	rsvg "github.com/rustyoz/svg"

	p2stypes "png2svg/type"
)

var (
	// ErrMalformedPath d 属性或 style 属性无法解析
	ErrMalformedPath = errors.New("svg2loop: malformed path")
	// ErrMismatch 文档重建出的图像与源图像不一致
	ErrMismatch = errors.New("svg2loop: reconstructed image does not match source")
)

// Path 文档中的一个 <path>：颜色加上它的闭合环
type Path struct {
	Color color.NRGBA
	Loops []p2stypes.Loop
}

// Document 解析后的 SVG 文档
type Document struct {
	Width, Height int
	Paths         []Path
}

// Parse 解析 loop2svg 生成的文档
// 宽高以及每个 <path> 的 d、style 都直接取自 rustyoz/svg 的解析结果
func Parse(doc []byte) (*Document, error) {
	parsed, err := rsvg.ParseSvg(string(doc), "png2svg", 1.0)
	if err != nil {
		return nil, err
	}

	var paths []*rsvg.Path
	for _, el := range parsed.Elements {
		if p, ok := el.(*rsvg.Path); ok {
			paths = append(paths, p)
		}
	}

	out := &Document{Paths: make([]Path, len(paths))}
	if out.Width, err = strconv.Atoi(parsed.Width); err != nil {
		return nil, fmt.Errorf("svg2loop: width %q: %w", parsed.Width, err)
	}
	if out.Height, err = strconv.Atoi(parsed.Height); err != nil {
		return nil, fmt.Errorf("svg2loop: height %q: %w", parsed.Height, err)
	}

	// 各个 path 相互独立，并行解析
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(idx int, p *rsvg.Path) {
			defer wg.Done()
			c, err := ParseStyle(p.Style)
			if err != nil {
				errs[idx] = fmt.Errorf("path %d: %w", idx, err)
				return
			}
			loops, err := ParsePathData(p.D)
			if err != nil {
				errs[idx] = fmt.Errorf("path %d: %w", idx, err)
				return
			}
			out.Paths[idx] = Path{Color: c, Loops: loops}
		}(i, p)
	}
	wg.Wait()

	// 按文档顺序返回第一个错误
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

var (
	tokenRe   = regexp.MustCompile(`-?[0-9]+|[MLZmlz]|[\s,]+`)
	commandRe = regexp.MustCompile(`^[MLZ]$`)
)

// ParsePathData 解析只含绝对 M/L/Z 命令和整数坐标的 d 属性
func ParsePathData(d string) ([]p2stypes.Loop, error) {
	if rest := tokenRe.ReplaceAllString(d, ""); rest != "" {
		return nil, fmt.Errorf("%w: unexpected %q in path data", ErrMalformedPath, rest)
	}

	var (
		loops   []p2stypes.Loop
		pts     []image.Point
		nums    []int
		command string
	)

	flush := func() error {
		if command == "" {
			if len(nums) > 0 {
				return fmt.Errorf("%w: coordinates before first command", ErrMalformedPath)
			}
			return nil
		}
		if command == "Z" {
			if len(nums) > 0 {
				return fmt.Errorf("%w: coordinates after Z", ErrMalformedPath)
			}
			return nil
		}
		if len(nums) != 2 {
			return fmt.Errorf("%w: %s takes one coordinate pair, got %d numbers", ErrMalformedPath, command, len(nums))
		}
		if command == "M" && len(pts) > 0 {
			return fmt.Errorf("%w: subpath not closed before M", ErrMalformedPath)
		}
		if command == "L" && len(pts) == 0 {
			return fmt.Errorf("%w: L without M", ErrMalformedPath)
		}
		pts = append(pts, image.Pt(nums[0], nums[1]))
		nums = nums[:0]
		return nil
	}

	for _, token := range tokenRe.FindAllString(d, -1) {
		t := strings.TrimSpace(token)
		if t == "" || t == "," {
			continue
		}
		if commandRe.MatchString(t) {
			if err := flush(); err != nil {
				return nil, err
			}
			command = t
			if t == "Z" {
				if len(pts) < 2 {
					return nil, fmt.Errorf("%w: Z closes a subpath of %d points", ErrMalformedPath, len(pts))
				}
				loops = append(loops, closeLoop(pts))
				pts = nil
			}
			continue
		}
		if t == "m" || t == "l" || t == "z" {
			return nil, fmt.Errorf("%w: relative command %q", ErrMalformedPath, t)
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPath, err)
		}
		nums = append(nums, n)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(pts) > 0 {
		return nil, fmt.Errorf("%w: subpath not closed", ErrMalformedPath)
	}
	return loops, nil
}

func closeLoop(pts []image.Point) p2stypes.Loop {
	l := make(p2stypes.Loop, len(pts))
	for i, p := range pts {
		l[i] = p2stypes.Edge{From: p, To: pts[(i+1)%len(pts)]}
	}
	return l
}

var styleRe = regexp.MustCompile(`fill:rgb\((\d+), *(\d+), *(\d+)\); *fill-opacity:([0-9.]+);`)

// ParseStyle 从 style 属性中读取颜色，不透明度四舍五入回 0..255
func ParseStyle(style string) (color.NRGBA, error) {
	m := styleRe.FindStringSubmatch(style)
	if m == nil {
		return color.NRGBA{}, fmt.Errorf("%w: style %q", ErrMalformedPath, style)
	}
	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(m[i+1], 10, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: style %q: %v", ErrMalformedPath, style, err)
		}
		ch[i] = uint8(v)
	}
	op, err := strconv.ParseFloat(m[4], 64)
	if err != nil || op < 0 || op > 1 {
		return color.NRGBA{}, fmt.Errorf("%w: opacity %q", ErrMalformedPath, m[4])
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(op*255 + 0.5)}, nil
}
