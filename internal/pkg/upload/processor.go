package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

const (
	AvatarSize     = 256
	ThumbnailWidth = 800
)

// ImageMeta carries the EXIF details we keep from an uploaded image.
type ImageMeta struct {
	CameraModel string
	TakenAt     *time.Time
	Width       int
	Height      int
}

// IsImageFile reports whether the extension is an image type we process.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// ReadMeta extracts EXIF metadata from an image file. Missing EXIF data
// is not an error, the returned meta just stays empty.
func ReadMeta(filePath string) (*ImageMeta, error) {
	meta := &ImageMeta{}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening image file: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return meta, nil
	}

	if m, err := x.Get(exif.Model); err == nil {
		meta.CameraModel = strings.TrimSpace(strings.Trim(m.String(), `"`))
	}
	if dt, err := x.DateTime(); err == nil {
		meta.TakenAt = &dt
	}

	return meta, nil
}

// ProcessAvatar normalizes an uploaded avatar: EXIF auto-orientation,
// center-crop to a square and resize to AvatarSize. The result is written
// as JPEG next to the source file and its path returned.
func ProcessAvatar(srcPath string) (string, error) {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("error decoding avatar: %w", err)
	}

	img = imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	dstPath := withSuffix(srcPath, "_avatar", ".jpg")
	if err := imaging.Save(img, dstPath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("error saving avatar: %w", err)
	}

	return dstPath, nil
}

// ProcessThumbnail scales an uploaded image down to ThumbnailWidth,
// keeping aspect ratio. Images already narrower are left untouched.
func ProcessThumbnail(srcPath string) (string, error) {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("error decoding image: %w", err)
	}

	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}

	dstPath := withSuffix(srcPath, "_thumb", ".jpg")
	if err := imaging.Save(img, dstPath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("error saving thumbnail: %w", err)
	}

	return dstPath, nil
}

func withSuffix(path, suffix, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + suffix + ext
}
