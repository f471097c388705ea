package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EncodePreviewImages serializes the preview image list into the string form
// stored in places.nft_preview_images. A nil list is stored as "[]".
func EncodePreviewImages(images []string) (string, error) {
	const op = "domain.EncodePreviewImages"

	if images == nil {
		images = []string{}
	}

	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// DecodePreviewImages parses the stored preview image column back into an
// ordered list. Blank or "null" columns decode to an empty list.
func DecodePreviewImages(raw string) ([]string, error) {
	const op = "domain.DecodePreviewImages"

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}, nil
	}

	var images []string
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if images == nil {
		images = []string{}
	}

	return images, nil
}
