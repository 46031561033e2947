package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"png2svg/logger"
	p2stypes "png2svg/type"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run 解析参数并执行转换，返回进程退出码
// 位置参数个数不对时打印用法并返回 0
func run(args []string, stdout, stderr io.Writer) int {
	prog := filepath.Base(args[0])
	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(stderr)

	opaque := fs.Bool("opaque", false, "跳过完全透明的像素")
	keep := fs.Bool("keep-every-point", false, "保留每个网格顶点，不合并共线边")
	workers := fs.Int("workers", 1, "并行处理区域的最大协程数，0 表示使用全部 CPU")
	frame := fs.Int("frame", 0, "输入为视频时使用的帧序号")
	verify := fs.Bool("verify", false, "写出前解析回文档并与源图像逐像素比较")
	verbose := fs.Bool("v", false, "输出调试日志")

	usage := func() {
		fmt.Fprintf(stdout, "Usage: %s [flags] [Input FILE] [OUT FILE]\n", prog)
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		fs.SetOutput(stderr)
	}
	fs.Usage = usage

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		usage()
		return 0
	}
	input, output := fs.Arg(0), fs.Arg(1)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := options{
		opaque:         *opaque,
		keepEveryPoint: *keep,
		workers:        *workers,
		frame:          *frame,
		verify:         *verify,
	}
	if err := convertFile(ctx, input, output, opts); err != nil {
		if errors.Is(err, p2stypes.ErrDecode) {
			fmt.Fprintf(stderr, "%s: Could not open as image file\n", input)
			logger.L().Debug("decode failed", "error", err)
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", prog, err)
		}
		return 1
	}
	return 0
}
