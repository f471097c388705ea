package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/livechain-go/internal/domain"
	"github.com/kirinyoku/livechain-go/internal/repository"
)

type CollectibleRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CollectibleRepo) With(db DB) *CollectibleRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CollectibleRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateCollectible persists a new record for rec.UserID.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - rec: the record to store; ID and AcquiredAt are assigned by the caller.
//
// Returns:
//   - *domain.CollectibleRecord: the stored record.
//   - error: repository.ErrPlaceReference if rec.PlaceID does not exist.
//   - error: repository.ErrConflict if rec.ID is already taken.
func (r *CollectibleRepo) CreateCollectible(
	ctx context.Context,
	rec domain.CollectibleRecord,
) (*domain.CollectibleRecord, error) {
	const op = "postgresrepo.CollectibleRepo.CreateCollectible"

	if r.db != nil {
		out, err := r.createCollectibleCore(ctx, r.db, rec)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		return out, nil
	}

	var out *domain.CollectibleRecord
	err := runTx(ctx, r.pool, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}, func(ctx context.Context, tx DB) error {
		var err error
		out, err = r.createCollectibleCore(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListCollectiblesForUser returns the user's records joined with their place
// names, newest first.
func (r *CollectibleRepo) ListCollectiblesForUser(
	ctx context.Context,
	userID string,
) ([]domain.CollectionEntry, error) {
	const op = "postgresrepo.CollectibleRepo.ListCollectiblesForUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT n.id, n.name, n.image_url, n.place_id, p.name, n.acquired_at
		 FROM user_nfts n
		 LEFT JOIN places p ON p.id = n.place_id
		 WHERE n.user_id = $1
		 ORDER BY n.acquired_at DESC, n.id DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.CollectionEntry, 0)
	for rows.Next() {
		var e domain.CollectionEntry
		if err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.ImageURL,
			&e.PlaceID,
			&e.PlaceName,
			&e.AcquiredAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		e.AcquiredAt = e.AcquiredAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *CollectibleRepo) createCollectibleCore(
	ctx context.Context,
	db DB,
	rec domain.CollectibleRecord,
) (*domain.CollectibleRecord, error) {
	const op = "postgresrepo.CollectibleRepo.createCollectibleCore"

	// Key-share lock keeps the place from being deleted until commit.
	var placeID string
	err := db.QueryRow(ctx,
		`SELECT id FROM places WHERE id = $1 FOR KEY SHARE`,
		rec.PlaceID,
	).Scan(&placeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, repository.ErrPlaceReference)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := rec
	if err := db.QueryRow(ctx,
		`INSERT INTO user_nfts (id, user_id, place_id, name, image_url, acquired_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING acquired_at`,
		rec.ID, rec.UserID, rec.PlaceID, rec.Label, rec.ImageURL, rec.AcquiredAt,
	).Scan(&out.AcquiredAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out.AcquiredAt = out.AcquiredAt.UTC()

	return &out, nil
}
