package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/livechain-go/internal/domain"
)

const placeColumns = `id, name, description, image_url, ticket_price, nft_preview_images, official_website, latitude, longitude`

type PlaceRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PlaceRepo) With(db DB) *PlaceRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PlaceRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ListPlaces returns every place in insertion order.
func (r *PlaceRepo) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	const op = "postgresrepo.PlaceRepo.ListPlaces"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+placeColumns+`
		 FROM places
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Place, 0)
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// GetPlace retrieves a place by its ID.
//
// Returns:
//   - *domain.Place: the place when found, preview images decoded.
//   - error: repository.ErrNotFound if the place does not exist.
func (r *PlaceRepo) GetPlace(ctx context.Context, id string) (*domain.Place, error) {
	const op = "postgresrepo.PlaceRepo.GetPlace"

	db := r.handle()

	p, err := scanPlace(db.QueryRow(ctx,
		`SELECT `+placeColumns+`
		 FROM places WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(row rowScanner) (domain.Place, error) {
	var (
		p        domain.Place
		price    *int32
		previews string
	)

	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.ImageURL,
		&price,
		&previews,
		&p.OfficialWebsite,
		&p.Latitude,
		&p.Longitude,
	); err != nil {
		return domain.Place{}, err
	}

	if price != nil {
		v := int(*price)
		p.TicketPrice = &v
	}

	images, err := domain.DecodePreviewImages(previews)
	if err != nil {
		return domain.Place{}, fmt.Errorf("place %s: %w", p.ID, err)
	}
	p.PreviewImages = images

	return p, nil
}
