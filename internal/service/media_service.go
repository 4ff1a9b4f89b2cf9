package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"sharify/internal/models"
	"sharify/internal/observability"
	"sharify/internal/storage"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxUploadBytes = 10 << 20
	AvatarSize            = 256
	WebPQuality           = 80
)

// MediaConfig names the buckets uploads go to.
type MediaConfig struct {
	AvatarBucket   string
	ResourceBucket string
	MaxUploadBytes int64
}

// MediaService normalises and stores uploaded files.
type MediaService struct {
	store storage.Storage
	cfg   MediaConfig
	now   func() time.Time
}

func NewMediaService(store storage.Storage, cfg MediaConfig) *MediaService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.AvatarBucket == "" {
		cfg.AvatarBucket = "avatars"
	}
	if cfg.ResourceBucket == "" {
		cfg.ResourceBucket = "resources"
	}
	return &MediaService{store: store, cfg: cfg, now: time.Now}
}

// UploadAvatar center-crops the image to a square, scales it to AvatarSize
// and stores it as WebP under a fresh key in the user's folder.
func (s *MediaService) UploadAvatar(ctx context.Context, userID uint, content []byte, contentType string) (*storage.Object, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Not authenticated")
	}
	if err := s.checkSize(content); err != nil {
		return nil, err
	}

	detected := mimetype.Detect(content).String()
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}
	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	square := cropToSquare(decoded)
	scaled := resizeToFit(square, AvatarSize, AvatarSize)
	encoded, err := encodeWebP(scaled, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	key := fmt.Sprintf("%d/%s.webp", userID, uuid.NewString())
	return s.put(ctx, s.cfg.AvatarBucket, key, encoded, "image/webp")
}

// UploadResourceFile stores a resource attachment under a timestamped name.
func (s *MediaService) UploadResourceFile(ctx context.Context, filename string, content []byte) (*storage.Object, error) {
	if err := s.checkSize(content); err != nil {
		return nil, err
	}
	name := sanitizeFilename(filename)
	if name == "" {
		return nil, models.NewValidationError("File name is required")
	}

	contentType := mimetype.Detect(content).String()
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" && strings.HasPrefix(contentType, "text/plain") {
		contentType = byExt
	}

	key := fmt.Sprintf("%d_%s", s.now().UnixMilli(), name)
	return s.put(ctx, s.cfg.ResourceBucket, key, content, contentType)
}

func (s *MediaService) checkSize(content []byte) error {
	if len(content) == 0 {
		return models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.cfg.MaxUploadBytes {
		return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.cfg.MaxUploadBytes>>20))
	}
	return nil
}

func (s *MediaService) put(ctx context.Context, bucket, key string, content []byte, contentType string) (*storage.Object, error) {
	obj, err := s.store.Put(ctx, bucket, key, bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		observability.StorageUploads.WithLabelValues(bucket, "error").Inc()
		observability.Logger.ErrorContext(ctx, "upload failed",
			"bucket", bucket, "key", key, "provider", s.store.Provider(), "error", err.Error())
		return nil, models.NewInternalError(err)
	}
	observability.StorageUploads.WithLabelValues(bucket, "ok").Inc()
	return obj, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with a dash.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if len(name) > 120 {
		ext := filepath.Ext(name)
		name = name[:120-len(ext)] + ext
	}
	return name
}

func cropToSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side <= 0 || (b.Dx() == side && b.Dy() == side) {
		return src
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
