package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitchat/internal/models"
)

var (
	// ErrUnreadable is returned when any page of a submission cannot be read.
	ErrUnreadable = errors.New("unreadable upload")
	// ErrNoPages is returned for an empty submission.
	ErrNoPages = errors.New("no pages submitted")
)

// Upload is one submitted page, either raw bytes or a base64 payload
// (optionally a data URL such as "data:image/png;base64,....").
type Upload struct {
	Name        string
	Data        []byte
	Base64      string
	ContentType string
}

// DecodeAll decodes every page concurrently and returns them in submission
// order. If any page fails, the whole submission fails and no pages are
// returned.
func DecodeAll(ctx context.Context, uploads []Upload) ([]models.Image, error) {
	if len(uploads) == 0 {
		return nil, ErrNoPages
	}

	pages := make([]models.Image, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range uploads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := decode(u)
			if err != nil {
				return fmt.Errorf("page %d (%s): %w", i+1, u.Name, err)
			}
			pages[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func decode(u Upload) (models.Image, error) {
	data := u.Data
	contentType := u.ContentType

	if u.Base64 != "" {
		payload := u.Base64
		if strings.HasPrefix(payload, "data:") {
			header, body, ok := strings.Cut(payload, ",")
			if !ok {
				return models.Image{}, fmt.Errorf("%w: malformed data URL", ErrUnreadable)
			}
			if contentType == "" {
				contentType, _, _ = strings.Cut(strings.TrimPrefix(header, "data:"), ";")
			}
			payload = body
		}
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return models.Image{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		data = decoded
	}

	if len(data) == 0 {
		return models.Image{}, fmt.Errorf("%w: empty page", ErrUnreadable)
	}

	sniffed := http.DetectContentType(data)
	if contentType == "" {
		contentType = sniffed
	}
	// Formats the sniffer does not know (HEIC) are trusted on the declared type.
	known := strings.HasPrefix(sniffed, "image/") ||
		(sniffed == "application/octet-stream" && u.ContentType != "")
	if !known || !strings.HasPrefix(contentType, "image/") {
		return models.Image{}, fmt.Errorf("%w: not an image (%s)", ErrUnreadable, sniffed)
	}
	return models.Image{Data: data, ContentType: contentType}, nil
}
