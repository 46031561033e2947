package video2image

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoProbe 只关心视频流
type VideoProbe struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		NbFrames     string `json:"nb_frames"`      // 有些容器给的是字符串
		AvgFrameRate string `json:"avg_frame_rate"` // fallback
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// FrameCount 通过 ffprobe 得到视频总帧数
func FrameCount(videoPath string) (int, error) {
	probeStr, err := ffmpeg.Probe(videoPath)
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %w", err)
	}
	return parseFrameCount(probeStr)
}

// parseFrameCount 从 probe 数据解析总帧数
func parseFrameCount(probeStr string) (int, error) {
	var probe VideoProbe
	if err := json.Unmarshal([]byte(probeStr), &probe); err != nil {
		return 0, fmt.Errorf("json unmarshal error: %w", err)
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		if stream.NbFrames != "" && stream.NbFrames != "0" {
			// nb_frames 存在则直接返回
			if n, err := strconv.Atoi(stream.NbFrames); err == nil {
				return n, nil
			}
		}
		// 否则用 avg_frame_rate * duration 估算
		if stream.AvgFrameRate != "" && stream.AvgFrameRate != "0/0" && stream.Duration != "" {
			parts := strings.Split(stream.AvgFrameRate, "/")
			if len(parts) == 2 {
				num, _ := strconv.ParseFloat(parts[0], 64)
				den, _ := strconv.ParseFloat(parts[1], 64)
				dur, _ := strconv.ParseFloat(stream.Duration, 64)
				if den != 0 && dur > 0 {
					return int(num / den * dur), nil
				}
			}
		}
	}

	return 0, fmt.Errorf("no video stream found or cannot determine frame count")
}
