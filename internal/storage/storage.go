package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

// ErrUnsupportedType is returned for uploads that are not a known image format.
var ErrUnsupportedType = errors.New("unsupported file type")

// Storage persists uploaded images (masjid logos, content images) and
// returns the public URL they are served from.
type Storage interface {
	SaveImage(fileHeader *multipart.FileHeader, folder string) (string, error)
}

type LocalStorage struct {
	uploadDir string
	publicURL string
}

type SpacesStorage struct {
	client   *s3.S3
	bucket   string
	cdnURL   string
	endpoint string
}

// NewLocalStorage writes under uploadDir; files are expected to be served at publicURL.
func NewLocalStorage(uploadDir, publicURL string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, publicURL: strings.TrimSuffix(publicURL, "/")}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client:   s3.New(sess),
		bucket:   bucket,
		cdnURL:   cdnURL,
		endpoint: endpoint,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename creates a unique filename without spaces: basename_timestamp.ext
func normalizeFilename(originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	baseName := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))

	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}

	return fmt.Sprintf("%s_%s%s", baseName, now.Format("20060102_150405"), ext)
}

// cleanFolder keeps only safe path segments so uploads cannot escape the root.
func cleanFolder(folder string) string {
	var parts []string
	for _, p := range strings.Split(folder, "/") {
		p = unsafeChars.ReplaceAllString(p, "")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return path.Join(parts...)
}

func (ls *LocalStorage) SaveImage(fileHeader *multipart.FileHeader, folder string) (string, error) {
	if !IsImage(fileHeader.Filename) {
		return "", ErrUnsupportedType
	}
	name := normalizeFilename(fileHeader.Filename, time.Now())
	rel := path.Join(cleanFolder(folder), name)
	log.Debug().Str("original", fileHeader.Filename).Str("stored", rel).Msg("[storage] upload normalized")

	dir := filepath.Join(ls.uploadDir, filepath.FromSlash(cleanFolder(folder)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return ls.publicURL + "/" + rel, nil
}

func (ss *SpacesStorage) SaveImage(fileHeader *multipart.FileHeader, folder string) (string, error) {
	if !IsImage(fileHeader.Filename) {
		return "", ErrUnsupportedType
	}
	name := normalizeFilename(fileHeader.Filename, time.Now())

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := path.Join("uploads", cleanFolder(folder), name)

	_, err = ss.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(ContentType(name)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[storage] failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// IsImage reports whether filename has an accepted image extension.
func IsImage(filename string) bool {
	_, ok := imageTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func ContentType(filename string) string {
	if ct, ok := imageTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
