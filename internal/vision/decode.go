package vision

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/abhisek/tcmdx/internal/llm"
)

// ErrNotImage is returned for payloads that decode but are not images.
var ErrNotImage = errors.New("payload is not an image")

// Decode parses a base64 image, with or without a "data:<mime>;base64,"
// prefix. A blank string yields ok=false. The MIME type is taken from the
// prefix when present and sniffed from the bytes otherwise.
func Decode(raw string) (img llm.Image, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return llm.Image{}, false, nil
	}

	var mime string
	if rest, found := strings.CutPrefix(raw, "data:"); found {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return llm.Image{}, false, fmt.Errorf("malformed data URI")
		}
		mime, _, _ = strings.Cut(header, ";")
		raw = payload
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some clients strip padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
		if err != nil {
			return llm.Image{}, false, fmt.Errorf("decode base64: %w", err)
		}
	}

	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return llm.Image{}, false, fmt.Errorf("%w: %s", ErrNotImage, mime)
	}
	return llm.Image{MIMEType: mime, Data: data}, true, nil
}
