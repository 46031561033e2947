// Package store 读写输入输出：普通路径走本地文件系统，s3://bucket/key 走 S3
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"png2svg/logger"
)

// ErrBadURI s3 地址缺少 bucket 或 key
var ErrBadURI = errors.New("store: malformed s3 uri")

// Location 一个输入或输出位置
type Location struct {
	Bucket string // 为空表示本地文件
	Key    string // 本地文件时为路径
}

// IsS3 是否为 S3 位置
func (l Location) IsS3() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Key
}

// ParseLocation 解析路径或 s3://bucket/key
func ParseLocation(uri string) (Location, error) {
	if !strings.HasPrefix(uri, "s3://") {
		return Location{Key: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrBadURI, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrBadURI, uri)
	}
	return Location{Bucket: u.Host, Key: key}, nil
}

// newSession 使用默认凭证链和共享配置（~/.aws/config）
func newSession() (*session.Session, error) {
	return session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
}

// Read 读取整个输入
func Read(ctx context.Context, loc Location) ([]byte, error) {
	if !loc.IsS3() {
		return os.ReadFile(loc.Key)
	}

	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	buf := aws.NewWriteAtBuffer(nil)
	n, err := s3manager.NewDownloader(sess).DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", loc, err)
	}
	logger.L().Debug("downloaded input", "location", loc.String(), "bytes", n)
	return buf.Bytes(), nil
}

// Write 一次性写出完整文档
func Write(ctx context.Context, loc Location, data []byte, contentType string) error {
	if !loc.IsS3() {
		return os.WriteFile(loc.Key, data, 0o644)
	}

	sess, err := newSession()
	if err != nil {
		return err
	}
	_, err = s3manager.NewUploader(sess).UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", loc, err)
	}
	logger.L().Debug("uploaded output", "location", loc.String(), "bytes", len(data))
	return nil
}
