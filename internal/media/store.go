// Package media stores uploaded post media and hands back the URL recorded
// on the Media row.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	// Register decoders for sniffed image types.
	_ "image/gif"
	_ "image/png"

	"sazon/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMaxUploadSizeMB = 25
	MasterMaxSize          = 2048
	ThumbnailSize          = 256
	JPEGQuality            = 82
	WebPQuality            = 70

	MasterFile    = "master.jpg"
	ThumbnailFile = "thumb.webp"
)

// Store persists uploaded bytes.
type Store interface {
	Put(ctx context.Context, filename string, data []byte) (url string, kind models.MediaKind, err error)
	// Delete removes what Put stored for url. Unknown URLs are ignored.
	Delete(ctx context.Context, url string) error
}

// LocalStore writes content-addressed files below dir and serves them under
// baseURL. Images are normalised to a JPEG master plus a WebP thumbnail;
// videos are kept as uploaded.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalStore(dir, baseURL string, maxUploadMB int) *LocalStore {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadSizeMB
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

func (s *LocalStore) Put(ctx context.Context, filename string, data []byte) (string, models.MediaKind, error) {
	if len(data) == 0 {
		return "", "", models.NewValidationError("No file uploaded")
	}
	if int64(len(data)) > s.maxBytes {
		return "", "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	contentType := sniff(data)

	switch {
	case imageTypes[contentType]:
		if err := s.putImage(hash, data); err != nil {
			return "", "", err
		}
		return s.url(hash, MasterFile), models.MediaImage, nil

	case strings.HasPrefix(contentType, "video/"):
		name := "original" + videoExtension(filename, contentType)
		if err := writeOnce(filepath.Join(s.dir, hash, name), data); err != nil {
			return "", "", models.NewInternalError(err)
		}
		return s.url(hash, name), models.MediaVideo, nil
	}
	return "", "", models.NewValidationError("Unsupported media type " + contentType)
}

func (s *LocalStore) putImage(hash string, data []byte) error {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.NewValidationError("Invalid image file")
	}

	master := fit(decoded, MasterMaxSize)
	masterJPG, err := encode(master, jpegEncoder)
	if err != nil {
		return models.NewInternalError(err)
	}
	thumbWebP, err := encode(fit(master, ThumbnailSize), webpEncoder)
	if err != nil {
		return models.NewInternalError(err)
	}

	if err := writeOnce(filepath.Join(s.dir, hash, MasterFile), masterJPG); err != nil {
		return models.NewInternalError(err)
	}
	if err := writeOnce(filepath.Join(s.dir, hash, ThumbnailFile), thumbWebP); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the file behind url and, for images, its thumbnail. The
// hash directory goes once it is empty.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return nil
	}
	hash, name, ok := strings.Cut(rel, "/")
	if !ok || !isHash(hash) || (name != MasterFile && !strings.HasPrefix(name, "original")) || strings.ContainsAny(name, `/\`) {
		return nil
	}

	names := []string{name}
	if name == MasterFile {
		names = append(names, ThumbnailFile)
	}
	dir := filepath.Join(s.dir, hash)
	for _, n := range names {
		if err := os.Remove(filepath.Join(dir, n)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return models.NewInternalError(err)
		}
	}
	// fails while other files remain
	_ = os.Remove(dir)
	return nil
}

func isHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func (s *LocalStore) url(hash, name string) string {
	return s.baseURL + "/" + path.Join(hash, name)
}

// fit scales src down so its longest side is at most limit.
func fit(src image.Image, limit int) image.Image {
	b := src.Bounds()
	long := max(b.Dx(), b.Dy())
	if b.Empty() || long <= limit {
		return src
	}
	w := max(b.Dx()*limit/long, 1)
	h := max(b.Dy()*limit/long, 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func encode(img image.Image, enc func(io.Writer, image.Image) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jpegEncoder(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
}

func webpEncoder(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, &webp.Options{Quality: WebPQuality})
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// sniff returns the bare, lower-cased media type of data.
func sniff(data []byte) string {
	detected := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		return mediaType
	}
	return strings.ToLower(detected)
}

// videoExtension keeps the uploaded extension when it is a known video one.
func videoExtension(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp4", ".mov", ".webm", ".avi":
		return ext
	}
	switch contentType {
	case "video/webm":
		return ".webm"
	case "video/avi":
		return ".avi"
	}
	return ".mp4"
}

// writeOnce skips files that already exist; names are content hashes.
func writeOnce(fullPath string, data []byte) error {
	if _, err := os.Stat(fullPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return err
	}
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, fullPath)
}
