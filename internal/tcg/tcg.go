package tcg

import (
	"context"
	"fmt"
)

// Format identifies which card API a metadata file came from. The CLI decides
// the format explicitly; nothing downstream infers it from file names.
type Format string

const (
	FormatMTG Format = "mtg"
	FormatGA  Format = "ga"
)

// ParseFormat converts a user-supplied source name into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMTG, FormatGA:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown source: %s (expected mtg or ga)", s)
}

// MetadataFile returns the name of the local JSON file for this format.
func (f Format) MetadataFile() string {
	return string(f) + "_cards.json"
}

// TempExt is the extension of the transient download artifact. Scryfall serves
// PNG scans, Grand Archive serves JPEG.
func (f Format) TempExt() string {
	if f == FormatMTG {
		return "png"
	}
	return "jpg"
}

// CardRef is a normalized (id, image URL) pair independent of source API shape.
// The id doubles as the card's directory name in the dataset tree.
type CardRef struct {
	ID       string
	ImageURL string
}

// Source fetches card metadata from one TCG API and writes it to a local JSON
// file that LoadCards can read back.
type Source interface {
	Name() Format
	// FetchMetadata downloads card metadata into dir and returns the path of
	// the JSON file it wrote, reusing an existing file when one is present.
	FetchMetadata(ctx context.Context, dir string) (string, error)
}

// Registry maps formats to their sources.
type Registry struct {
	sources map[Format]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: map[Format]Source{}}
}

func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

func (r *Registry) Get(f Format) (Source, error) {
	s, ok := r.sources[f]
	if !ok {
		return nil, fmt.Errorf("source not registered: %s", f)
	}
	return s, nil
}
