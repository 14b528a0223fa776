package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"github.com/nfnt/resize"
)

// SniffLen is how many leading bytes Sniff needs to recognise any supported type.
const SniffLen = 261

// Sniff detects the MIME type from the leading bytes of a file. The second
// result reports whether the content is an image.
func Sniff(head []byte) (string, bool) {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, filetype.IsImage(head)
}

type Thumbnailer struct {
	width   uint
	quality int
}

func NewThumbnailer(width uint) *Thumbnailer {
	return &Thumbnailer{width: width, quality: 80}
}

// Thumbnail scales an image down to the configured width as a JPEG. Images
// already narrower than that are re-encoded at their own size.
func (t *Thumbnailer) Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if uint(img.Bounds().Dx()) > t.width {
		img = resize.Resize(t.width, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
