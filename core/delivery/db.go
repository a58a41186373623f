package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrRegionNotFound  = errors.New("delivery region not found")
	ErrCarrierNotFound = errors.New("delivery carrier not found")
)

// FetchAll loads the whole directory in two queries. The table is small
// (one row per region, a handful of carriers each), so no paging.
func FetchAll(ctx context.Context, db *sqlx.DB) (Directory, error) {
	const qr = `SELECT * FROM delivery_regions ORDER BY region_code`

	regions := []Region{}
	if err := db.SelectContext(ctx, &regions, qr); err != nil {
		return nil, fmt.Errorf("selecting delivery regions: %w", err)
	}

	const qc = `SELECT * FROM delivery_carriers ORDER BY region_code, position, name`

	carriers := []Carrier{}
	if err := db.SelectContext(ctx, &carriers, qc); err != nil {
		return nil, fmt.Errorf("selecting delivery carriers: %w", err)
	}

	byRegion := make(map[string][]Carrier, len(regions))
	for _, c := range carriers {
		byRegion[c.RegionCode] = append(byRegion[c.RegionCode], c)
	}

	dir := make(Directory, len(regions))
	for _, r := range regions {
		r.Carriers = byRegion[r.Code]
		if r.Carriers == nil {
			r.Carriers = []Carrier{}
		}
		dir[r.Code] = r
	}

	return dir, nil
}

func FetchRegion(ctx context.Context, db *sqlx.DB, code string) (Region, error) {
	const q = `SELECT * FROM delivery_regions WHERE region_code = $1`

	var r Region
	if err := db.GetContext(ctx, &r, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Region{}, ErrRegionNotFound
		}
		return Region{}, fmt.Errorf("selecting delivery region[%s]: %w", code, err)
	}

	const qc = `SELECT * FROM delivery_carriers WHERE region_code = $1 ORDER BY position, name`
	r.Carriers = []Carrier{}
	if err := db.SelectContext(ctx, &r.Carriers, qc, code); err != nil {
		return Region{}, fmt.Errorf("selecting carriers of region[%s]: %w", code, err)
	}

	return r, nil
}

func CreateRegion(ctx context.Context, db sqlx.ExtContext, r Region) error {
	const q = `
	INSERT INTO delivery_regions (region_code, region_name, created_at, updated_at)
	VALUES (:region_code, :region_name, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, r); err != nil {
		return fmt.Errorf("inserting delivery region: %w", err)
	}

	return nil
}

func UpdateRegion(ctx context.Context, db sqlx.ExtContext, r Region) error {
	const q = `
	UPDATE delivery_regions SET
		region_name = :region_name,
		updated_at = :updated_at
	WHERE region_code = :region_code`

	res, err := sqlx.NamedExecContext(ctx, db, q, r)
	if err != nil {
		return fmt.Errorf("updating delivery region[%s]: %w", r.Code, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRegionNotFound
	}

	return nil
}

func DeleteRegion(ctx context.Context, db sqlx.ExtContext, code string) error {
	const q = `DELETE FROM delivery_regions WHERE region_code = $1`

	res, err := db.ExecContext(ctx, q, code)
	if err != nil {
		return fmt.Errorf("deleting delivery region[%s]: %w", code, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRegionNotFound
	}

	return nil
}

func CreateCarrier(ctx context.Context, db sqlx.ExtContext, c Carrier) error {
	const q = `
	INSERT INTO delivery_carriers
		(carrier_id, region_code, name, logo_url, currency, home_price, office_price, active, position, created_at, updated_at)
	VALUES
		(:carrier_id, :region_code, :name, :logo_url, :currency, :home_price, :office_price, :active, :position, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting delivery carrier: %w", err)
	}

	return nil
}

func FetchCarrier(ctx context.Context, db *sqlx.DB, id string) (Carrier, error) {
	const q = `SELECT * FROM delivery_carriers WHERE carrier_id = $1`

	var c Carrier
	if err := db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Carrier{}, ErrCarrierNotFound
		}
		return Carrier{}, fmt.Errorf("selecting delivery carrier[%s]: %w", id, err)
	}

	return c, nil
}

func UpdateCarrier(ctx context.Context, db sqlx.ExtContext, c Carrier) error {
	const q = `
	UPDATE delivery_carriers SET
		name = :name,
		logo_url = :logo_url,
		currency = :currency,
		home_price = :home_price,
		office_price = :office_price,
		active = :active,
		position = :position,
		updated_at = :updated_at
	WHERE carrier_id = :carrier_id`

	res, err := sqlx.NamedExecContext(ctx, db, q, c)
	if err != nil {
		return fmt.Errorf("updating delivery carrier[%s]: %w", c.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCarrierNotFound
	}

	return nil
}

func DeleteCarrier(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM delivery_carriers WHERE carrier_id = $1`

	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deleting delivery carrier[%s]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCarrierNotFound
	}

	return nil
}
