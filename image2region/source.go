package image2region

import (
	"fmt"
	"image"
	"image/color"
	"io"

	// 标准库解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// 扩展解码器
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	p2stypes "png2svg/type"
)

// RasterSource 提供宽高和逐像素的精确 RGBA 颜色（非预乘）
type RasterSource interface {
	Width() int
	Height() int
	NRGBAAt(x, y int) color.NRGBA
}

// Raster 紧凑存储的非预乘 RGBA 像素网格，原点固定为 (0,0)
type Raster struct {
	width, height int
	pix           []color.NRGBA
}

// NewRaster 创建一张全透明的 width×height 栅格
func NewRaster(width, height int) *Raster {
	return &Raster{
		width:  width,
		height: height,
		pix:    make([]color.NRGBA, width*height),
	}
}

func (r *Raster) Width() int  { return r.width }
func (r *Raster) Height() int { return r.height }

func (r *Raster) NRGBAAt(x, y int) color.NRGBA {
	return r.pix[y*r.width+x]
}

// Set 设置单个像素，测试里用来手工构造图像
func (r *Raster) Set(x, y int, c color.NRGBA) {
	r.pix[y*r.width+x] = c
}

// FromImage 把任意 image.Image 复制为 Raster，包围盒平移到原点
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < r.height; y++ {
			row := nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < r.width; x++ {
				p := row[x*4 : x*4+4 : x*4+4]
				r.pix[y*r.width+x] = color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
			}
		}
		return r
	}

	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			r.pix[y*r.width+x] = c
		}
	}
	return r
}

// Decode 解码 PNG/GIF/JPEG/BMP/TIFF/WebP，失败时返回包装了 ErrDecode 的错误
func Decode(rd io.Reader) (*Raster, string, error) {
	img, format, err := image.Decode(rd)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", p2stypes.ErrDecode, err)
	}
	return FromImage(img), format, nil
}
