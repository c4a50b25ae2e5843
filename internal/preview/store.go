package preview

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/plant-predict-ui/internal/errors"
)

const jpegQuality = 85

// opaqueType is served for bytes that do not sniff as an image.
const opaqueType = "application/octet-stream"

// Preview is a locally resolvable rendition of a selected image.
type Preview struct {
	ID          string
	ContentType string
	Data        []byte
	// Width and Height are zero when the source could not be decoded.
	Width  int
	Height int
}

// Store holds previews until they are released. Every Create must be
// paired with a Release or the preview stays resident.
type Store struct {
	mu      sync.RWMutex
	items   map[string]*Preview
	maxSide uint
}

func NewStore(maxSide uint) *Store {
	return &Store{
		items:   make(map[string]*Preview),
		maxSide: maxSide,
	}
}

// Create registers a preview for data. Decodable images are shrunk to fit
// maxSide and re-encoded as JPEG. Anything else is kept verbatim under its
// sniffed image type, or as opaque bytes when it does not sniff as an image.
// The uploader's declared content type is never trusted.
func (s *Store) Create(data []byte) (*Preview, error) {
	p, err := s.render(data)
	if err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()

	s.mu.Lock()
	s.items[p.ID] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Store) render(data []byte) (*Preview, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return &Preview{ContentType: sniffImageType(data), Data: append([]byte(nil), data...)}, nil
	}

	thumb := resize.Thumbnail(s.maxSide, s.maxSide, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, errors.Wrap(errors.KindPreview, "preview.create", "failed to encode thumbnail", err)
	}

	bounds := thumb.Bounds()
	return &Preview{
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

func sniffImageType(data []byte) string {
	detected := http.DetectContentType(data)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return opaqueType
}

func (s *Store) Get(id string) (*Preview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	return p, ok
}

// Release drops the preview. Reports whether it was present.
func (s *Store) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
