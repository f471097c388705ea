// Package seed loads places from a JSON document into the places table.
// It is the only writer of places; the HTTP service treats them as read-only.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lib/pq"

	"github.com/kirinyoku/livechain-go/internal/domain"
)

const upsertPlace = `
INSERT INTO places (id, name, description, image_url, ticket_price, nft_preview_images, official_website, latitude, longitude)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	image_url = EXCLUDED.image_url,
	ticket_price = EXCLUDED.ticket_price,
	nft_preview_images = EXCLUDED.nft_preview_images,
	official_website = EXCLUDED.official_website,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude`

// Load decodes a JSON array of places and validates each entry.
func Load(r io.Reader) ([]domain.Place, error) {
	const op = "seed.Load"

	var places []domain.Place
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&places); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	seen := make(map[string]struct{}, len(places))
	for i := range places {
		p := &places[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)

		if err := validatePlace(*p); err != nil {
			return nil, fmt.Errorf("%s: place %d: %w", op, i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%s: place %d: duplicate id %q", op, i, p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.PreviewImages == nil {
			p.PreviewImages = []string{}
		}
	}

	return places, nil
}

func validatePlace(p domain.Place) error {
	switch {
	case p.ID == "":
		return errors.New("id is required")
	case p.Name == "":
		return fmt.Errorf("%s: name is required", p.ID)
	case p.Latitude < -90 || p.Latitude > 90:
		return fmt.Errorf("%s: latitude %g out of range", p.ID, p.Latitude)
	case p.Longitude < -180 || p.Longitude > 180:
		return fmt.Errorf("%s: longitude %g out of range", p.ID, p.Longitude)
	case p.TicketPrice != nil && *p.TicketPrice < 0:
		return fmt.Errorf("%s: ticket price must not be negative", p.ID)
	}
	return nil
}

// Apply upserts places in one transaction and returns how many were written.
// Existing ids keep their identity; every other column is overwritten.
func Apply(ctx context.Context, db *sql.DB, places []domain.Place) (int, error) {
	const op = "seed.Apply"

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", op, describe(err))
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertPlace)
	if err != nil {
		return 0, fmt.Errorf("%s: prepare: %w", op, describe(err))
	}
	defer stmt.Close()

	for _, p := range places {
		previews, err := domain.EncodePreviewImages(p.PreviewImages)
		if err != nil {
			return 0, fmt.Errorf("%s: %s: %w", op, p.ID, err)
		}

		var price sql.NullInt64
		if p.TicketPrice != nil {
			price = sql.NullInt64{Int64: int64(*p.TicketPrice), Valid: true}
		}

		var website sql.NullString
		if p.OfficialWebsite != nil {
			website = sql.NullString{String: *p.OfficialWebsite, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Description, p.ImageURL, price, previews, website, p.Latitude, p.Longitude,
		); err != nil {
			return 0, fmt.Errorf("%s: %s: %w", op, p.ID, describe(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, describe(err))
	}

	return len(places), nil
}

// describe prefixes Postgres errors with their SQLSTATE.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("sqlstate %s (%s): %w", pqErr.Code, pqErr.Code.Name(), err)
	}
	return err
}
