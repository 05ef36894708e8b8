package vfs

import (
	"fmt"
	"strings"
)

// PreviewKind is how a file's content can be shown to the user.
type PreviewKind string

const (
	PreviewImage PreviewKind = "image"
	PreviewVideo PreviewKind = "video"
	PreviewAudio PreviewKind = "audio"
	PreviewPDF   PreviewKind = "pdf"
	PreviewText  PreviewKind = "text"
	PreviewNone  PreviewKind = "none"
)

// PreviewKindFor classifies a MIME type. Parameters such as charset are ignored.
func PreviewKindFor(contentType string) PreviewKind {
	mime, _, _ := strings.Cut(contentType, ";")
	mime = strings.ToLower(strings.TrimSpace(mime))

	switch {
	case strings.HasPrefix(mime, "image/"):
		return PreviewImage
	case strings.HasPrefix(mime, "video/"):
		return PreviewVideo
	case strings.HasPrefix(mime, "audio/"):
		return PreviewAudio
	case mime == "application/pdf":
		return PreviewPDF
	case strings.HasPrefix(mime, "text/"), mime == "application/json":
		return PreviewText
	default:
		return PreviewNone
	}
}

// Preview is a file resolved for display.
type Preview struct {
	Entry *Entry
	Kind  PreviewKind
	Data  []byte
	Text  string // set only for PreviewText
}

// Preview loads a file and its content for display.
func (s *Service) Preview(id string) (*Preview, error) {
	entry, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if entry.IsFolder() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, id)
	}

	content, err := s.store.GetContent(id)
	if err != nil {
		return nil, err
	}

	p := &Preview{Entry: entry, Kind: PreviewKindFor(entry.ContentType)}
	if content != nil {
		p.Data = content.Data
	}
	if p.Kind == PreviewText {
		p.Text = string(p.Data)
	}
	return p, nil
}
