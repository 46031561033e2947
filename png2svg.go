package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"png2svg/edge2loop"
	"png2svg/image2region"
	"png2svg/logger"
	"png2svg/loop2svg"
	"png2svg/region2edge"
	"png2svg/store"
	"png2svg/svg2loop"
	p2stypes "png2svg/type"
	"png2svg/video2image"
)

// options 命令行参数
type options struct {
	opaque         bool // 跳过完全透明的像素
	keepEveryPoint bool // 保留每个网格顶点，不合并共线边
	workers        int  // 区域并行数，1 为串行，0 为 GOMAXPROCS
	frame          int  // 输入为视频时取第几帧
	verify         bool // 写出前解析回文档并与源图像比对
}

// convertFile 读取输入、转换并写出，转换失败时不写任何输出
func convertFile(ctx context.Context, input, output string, opts options) error {
	inLoc, err := store.ParseLocation(input)
	if err != nil {
		return err
	}
	outLoc, err := store.ParseLocation(output)
	if err != nil {
		return err
	}

	src, err := loadSource(ctx, inLoc, opts.frame)
	if err != nil {
		return err
	}

	doc, err := convert(src, opts)
	if err != nil {
		return err
	}
	if opts.verify {
		if err := verify(doc, src, opts.opaque); err != nil {
			return err
		}
	}
	return store.Write(ctx, outLoc, doc, "image/svg+xml")
}

// loadSource 解码输入图像；视频则用 ffmpeg 取一帧
func loadSource(ctx context.Context, loc store.Location, frame int) (*image2region.Raster, error) {
	if video2image.IsVideo(loc.Key) {
		path := loc.Key
		if loc.IsS3() {
			// ffmpeg 只能读本地文件，先下载到临时文件
			tmp, cleanup, err := download(ctx, loc)
			if err != nil {
				return nil, err
			}
			defer cleanup()
			path = tmp
		}
		img, err := video2image.ExtractFrame(ctx, path, frame)
		if err != nil {
			return nil, err
		}
		return image2region.FromImage(img), nil
	}

	data, err := store.Read(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", p2stypes.ErrDecode, err)
	}
	src, format, err := image2region.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	logger.L().Debug("decoded input", "input", loc.String(), "format", format,
		"width", src.Width(), "height", src.Height())
	return src, nil
}

func download(ctx context.Context, loc store.Location) (string, func(), error) {
	data, err := store.Read(ctx, loc)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", p2stypes.ErrDecode, err)
	}
	f, err := os.CreateTemp("", "png2svg-*"+filepath.Ext(loc.Key))
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(f.Name()) }
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

// convert 执行完整流水线并返回 SVG 文档
func convert(src image2region.RasterSource, opts options) ([]byte, error) {
	shapes, err := vectorize(src, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := loop2svg.Write(&buf, src.Width(), src.Height(), shapes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// vectorize 分割图像，然后对每个区域提取边界并拼接成环
// 区域之间相互独立，workers 不为 1 时并行处理，结果按区域顺序合并
func vectorize(src image2region.RasterSource, opts options) ([]p2stypes.Shape, error) {
	regions := image2region.Segment(src, opts.opaque).All()
	shapes := make([]p2stypes.Shape, len(regions))

	trace := func(i int) error {
		s, err := traceRegion(regions[i], !opts.keepEveryPoint)
		if err != nil {
			return err
		}
		shapes[i] = s
		return nil
	}

	workers := opts.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(regions) < 2 {
		for i := range regions {
			if err := trace(i); err != nil {
				return nil, err
			}
		}
	} else if err := traceParallel(len(regions), workers, trace); err != nil {
		return nil, err
	}

	logger.L().Debug("vectorized regions", "regions", len(regions), "workers", workers)
	return shapes, nil
}

// traceRegion 提取单个区域的边界并拼接成环，错误中带上区域的种子像素
func traceRegion(r p2stypes.Region, simplify bool) (p2stypes.Shape, error) {
	wrap := func(err error) error {
		return fmt.Errorf("region at %d,%d: %w", r.Pixels[0].X, r.Pixels[0].Y, err)
	}
	edges, err := region2edge.Extract(r)
	if err != nil {
		return p2stypes.Shape{}, wrap(err)
	}
	if err := edge2loop.CheckBalanced(edges); err != nil {
		return p2stypes.Shape{}, wrap(err)
	}
	loops, err := edge2loop.Join(edges, simplify)
	if err != nil {
		return p2stypes.Shape{}, wrap(err)
	}
	return p2stypes.Shape{Color: r.Color, Loops: loops}, nil
}

// traceParallel 最多 workers 个协程并发处理
// 错误按序号保存，返回序号最小的一个，与串行处理的结果一致
func traceParallel(n, workers int, trace func(int) error) error {
	errs := make([]error, n)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[idx] = trace(idx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// verify 把生成的文档解析回来、栅格化，并与源图像逐像素比较
func verify(doc []byte, src image2region.RasterSource, opaque bool) error {
	parsed, err := svg2loop.Parse(doc)
	if err != nil {
		return err
	}
	img, err := svg2loop.Reconstruct(parsed)
	if err != nil {
		return err
	}
	if err := svg2loop.Compare(src, img, opaque); err != nil {
		return err
	}
	logger.L().Info("verified output", "paths", len(parsed.Paths))
	return nil
}
