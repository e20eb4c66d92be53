// Package storage 为推文图片签发预签名上传地址
package storage

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/d60-Lab/chirp/config"
)

// PresignedPut 已签名的 S3 PUT，上传方需原样带上 Headers
type PresignedPut struct {
	URL       string
	Headers   map[string]string
	ExpiresAt time.Time
}

type Presigner interface {
	PresignPut(key, contentType string, size int64) (*PresignedPut, error)
}

type S3Presigner struct {
	client *s3.S3
	bucket string
	expiry time.Duration
}

func NewS3Presigner(cfg config.S3Config) (*S3Presigner, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		// minio 等兼容实现需要 path-style
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	if cfg.AccessKeyID != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Minute
	}
	return &S3Presigner{client: s3.New(sess), bucket: cfg.Bucket, expiry: expiry}, nil
}

// PresignPut 将 Content-Type 与 Content-Length 签入 URL，对象存储拒绝其他请求体
func (p *S3Presigner) PresignPut(key, contentType string, size int64) (*PresignedPut, error) {
	req, _ := p.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	url, err := req.Presign(p.expiry)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return &PresignedPut{
		URL: url,
		Headers: map[string]string{
			"Content-Type":   contentType,
			"Content-Length": strconv.FormatInt(size, 10),
		},
		ExpiresAt: time.Now().UTC().Add(p.expiry),
	}, nil
}

// Method 预签名上传使用的 HTTP 方法
const Method = http.MethodPut

// FileSuffix 返回 "type/subtype" 中的 subtype
func FileSuffix(fileType string) (string, bool) {
	major, minor, ok := strings.Cut(fileType, "/")
	if !ok || major == "" || minor == "" || strings.ContainsAny(minor, "/ ") {
		return "", false
	}
	return minor, true
}
