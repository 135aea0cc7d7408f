package tcg

import (
	"encoding/json"
	"fmt"
	"os"
)

type mtgImageURIs struct {
	PNG string `json:"png"`
}

type mtgCard struct {
	ID        string        `json:"id"`
	ImageURIs *mtgImageURIs `json:"image_uris"`
}

// LoadCards reads a metadata file of the given format and normalizes it into
// CardRefs. MTG cards without a PNG image (two-faced layouts and the like) are
// dropped. Unreadable files and malformed JSON are structural errors.
func LoadCards(path string, format Format) ([]CardRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}

	switch format {
	case FormatMTG:
		var cards []mtgCard
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, fmt.Errorf("parse mtg metadata: %w", err)
		}
		refs := make([]CardRef, 0, len(cards))
		for _, c := range cards {
			if c.ImageURIs == nil || c.ImageURIs.PNG == "" {
				continue
			}
			refs = append(refs, CardRef{ID: c.ID, ImageURL: c.ImageURIs.PNG})
		}
		return refs, nil
	case FormatGA:
		var records []gaRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse ga metadata: %w", err)
		}
		refs := make([]CardRef, 0, len(records))
		for _, r := range records {
			refs = append(refs, CardRef{ID: r.Slug, ImageURL: r.Image})
		}
		return refs, nil
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}
