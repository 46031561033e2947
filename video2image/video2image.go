package video2image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"png2svg/logger"
	p2stypes "png2svg/type"
)

// ErrNoFrame 请求的帧序号超出视频帧数
var ErrNoFrame = errors.New("video2image: frame index out of range")

var videoExts = map[string]bool{
	".mp4": true, ".mkv": true, ".webm": true, ".mov": true,
	".avi": true, ".flv": true, ".m4v": true, ".mpg": true, ".mpeg": true,
}

// IsVideo 根据扩展名判断输入是否需要经过 ffmpeg
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// ExtractFrame 用 ffmpeg 取出第 index 帧（从 0 开始），以 PNG 经管道读回并解码
// 任何失败都包装为 ErrDecode
func ExtractFrame(ctx context.Context, videoPath string, index int) (image.Image, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: %w: %d", p2stypes.ErrDecode, ErrNoFrame, index)
	}
	if total, err := FrameCount(videoPath); err == nil && index >= total {
		return nil, fmt.Errorf("%w: %w: %d >= %d", p2stypes.ErrDecode, ErrNoFrame, index, total)
	}

	var out, stderr bytes.Buffer
	cmd := ffmpeg.Input(videoPath).
		Output("pipe:1", ffmpeg.KwArgs{
			"format":  "image2pipe",
			"vcodec":  "png",
			"vf":      fmt.Sprintf(`select=eq(n\,%d)`, index),
			"vframes": 1,
		}).
		WithOutput(&out).
		WithErrorOutput(&stderr)
	cmd.Context = ctx

	logger.L().Debug("extracting video frame", "video", videoPath, "frame", index)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", p2stypes.ErrDecode, err, strings.TrimSpace(stderr.String()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: %w: %d", p2stypes.ErrDecode, ErrNoFrame, index)
	}

	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%w: decode frame %d failed: %v", p2stypes.ErrDecode, index, err)
	}
	return img, nil
}
