package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"PromoVideo-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

// InitMinIO 初始化连接，在 main.go 中调用
func InitMinIO() {
	cfg := config.AppConfig.MinIO
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}
	log.Println("MinIO 连接成功")
}

// UploadToMinIO 通用上传函数，从 io.Reader 上传到 MinIO。
// 返回稳定的对象 URL（endpoint/bucket/object），需要外部访问时再用
// ResolveTemporaryURL 换取带签名的临时 URL。
//   - reader: 文件数据流 (可以是 http.Response.Body 或其他 io.Reader)
//   - objectName: 云端存储路径，例如 "scenes/123/image_v2.png"
//   - size: 文件大小（字节），-1 表示未知大小
func UploadToMinIO(reader io.Reader, objectName string, size int64) (string, error) {
	ctx := context.Background()
	cfg := config.AppConfig.MinIO
	bucketName := cfg.Bucket

	// 确保 Bucket 存在
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return "", fmt.Errorf("检查 Bucket 失败: %w", err)
	}
	if !exists {
		err = MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return "", fmt.Errorf("创建 Bucket 失败: %w", err)
		}
		log.Printf("Bucket '%s' 已创建", bucketName)
	}

	// 根据文件扩展名确定 ContentType
	contentType := "application/octet-stream"
	ext := filepath.Ext(objectName)
	switch ext {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	case ".mp4":
		contentType = "video/mp4"
	}

	_, err = MinioClient.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传到 MinIO 失败: %w", err)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	log.Printf("文件已上传: %s", objectName)
	return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.Endpoint, bucketName, objectName), nil
}

// DownloadToStorage 下载外部资源并转存 MinIO，返回存储 URL
func DownloadToStorage(ctx context.Context, sourceURL, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request failed: %w", err)
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	return UploadToMinIO(resp.Body, objectName, resp.ContentLength)
}

// ResolveTemporaryURL 把存储 URL 换成临时可访问的签名 URL。
// 非本存储的 URL 原样返回；签名失败时也退回原始 URL，不中断流程。
func ResolveTemporaryURL(rawURL string) string {
	cfg := config.AppConfig.MinIO

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Host != cfg.Endpoint && (cfg.Domain == "" || u.Host != cfg.Domain) {
		// 外部 URL，直接透传
		return rawURL
	}

	objectName := strings.TrimPrefix(u.Path, "/"+cfg.Bucket+"/")
	if objectName == u.Path || objectName == "" {
		return rawURL
	}

	expiry := time.Hour * 24
	presignedURL, err := MinioClient.PresignedGetObject(context.Background(), cfg.Bucket, objectName, expiry, make(url.Values))
	if err != nil {
		log.Printf("生成签名 URL 失败，退回原始 URL: %v", err)
		return rawURL
	}
	return presignedURL.String()
}
