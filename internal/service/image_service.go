package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"path"
	"strings"

	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	PreviewMaxWidth             = 960
	PreviewMaxHeight            = 960
	WebPQuality                 = 70
	imageDir                    = "posts"
)

// invalidImageMessage is shown when the uploaded file is not an image.
const invalidImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// ImageUpload is an image file submitted with a post form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService validates uploaded images and hands them to storage.
type ImageService struct {
	store              storage.Storage
	maxUploadSizeBytes int64
}

func NewImageService(store storage.Storage, cfg *config.Config) *ImageService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Store checks that in is a decodable image, saves the original bytes and a
// WebP preview, and returns the storage reference of the original.
func (s *ImageService) Store(ctx context.Context, in ImageUpload) (string, error) {
	if s == nil || s.store == nil {
		return "", models.NewInternalError(errors.New("image storage not configured"))
	}
	ref, err := s.save(ctx, in)
	if err != nil {
		if models.ErrorCode(err) == models.CodeValidation {
			observability.ImageUploads.WithLabelValues("rejected").Inc()
		}
		return "", err
	}
	observability.ImageUploads.WithLabelValues("stored").Inc()
	return ref, nil
}

func (s *ImageService) save(ctx context.Context, in ImageUpload) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewFieldValidationError(map[string]string{"image": "The submitted file is empty."})
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewFieldValidationError(map[string]string{
			"image": fmt.Sprintf("File too large (max %dMB).", s.maxUploadSizeBytes/(1024*1024)),
		})
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewFieldValidationError(map[string]string{"image": invalidImageMessage})
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewFieldValidationError(map[string]string{"image": invalidImageMessage})
	}

	sum := sha256.Sum256(in.Content)
	name := hex.EncodeToString(sum[:])[:32]
	originalName := path.Join(imageDir, name+"."+extensionFor(format))

	ref, err := s.store.Save(ctx, originalName, in.Content)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	preview, err := encodeWebP(resizeToFit(decoded, PreviewMaxWidth, PreviewMaxHeight), WebPQuality)
	if err != nil {
		_ = s.store.Delete(ctx, ref)
		return "", models.NewInternalError(err)
	}
	if _, err := s.store.Save(ctx, PreviewRef(ref), preview); err != nil {
		_ = s.store.Delete(ctx, ref)
		return "", models.NewInternalError(err)
	}

	return ref, nil
}

// Remove deletes a stored image and its preview.
func (s *ImageService) Remove(ctx context.Context, ref string) {
	if s == nil || ref == "" {
		return
	}
	_ = s.store.Delete(ctx, ref)
	_ = s.store.Delete(ctx, PreviewRef(ref))
}

// URL returns the public URL of a stored reference.
func (s *ImageService) URL(ref string) string {
	if s == nil || s.store == nil {
		return ""
	}
	return s.store.URL(ref)
}

// Resolve fills in the public URLs of each post's image and preview.
func (s *ImageService) Resolve(posts ...*models.Post) {
	for _, p := range posts {
		if p == nil || p.Image == "" {
			continue
		}
		p.ImageURL = s.URL(p.Image)
		p.ImagePreviewURL = s.URL(PreviewRef(p.Image))
	}
}

// ResolvePage fills in the image URLs of every post on a page.
func (s *ImageService) ResolvePage(page *repository.Page[models.Post]) {
	if page == nil {
		return
	}
	for i := range page.Items {
		s.Resolve(&page.Items[i])
	}
}

// PreviewRef returns the storage reference of the preview for an original.
func PreviewRef(ref string) string {
	ext := path.Ext(ref)
	return strings.TrimSuffix(ref, ext) + ".preview.webp"
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
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
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
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "png", "gif", "webp":
		return format
	default:
		return "img"
	}
}
