package delivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dvelichkov/storefront/api/background"
	"github.com/dvelichkov/storefront/api/web"
	"github.com/dvelichkov/storefront/api/weberr"
	"github.com/dvelichkov/storefront/pubsub"
	"github.com/dvelichkov/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Handlers owns both faces of the directory: the filtered buyer view and
// the admin editing surface that populates it.
type Handlers struct {
	DB  *sqlx.DB
	Bus *pubsub.Bus
	BG  *background.Background
	Log logrus.FieldLogger
}

type directoryResponse struct {
	Costs Directory `json:"costs"`
}

// HandleDirectory serves the buyer-facing table: inactive carriers and
// carrier-less regions are gone.
func (h *Handlers) HandleDirectory() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		dir, err := FetchAll(ctx, h.DB)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, directoryResponse{Costs: BuyerView(dir)}, http.StatusOK)
	}
}

// HandleAdminDirectory serves the unfiltered table, inactive carriers
// included, for the back-office editor.
func (h *Handlers) HandleAdminDirectory() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		dir, err := FetchAll(ctx, h.DB)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, directoryResponse{Costs: dir}, http.StatusOK)
	}
}

func (h *Handlers) HandleCreateRegion() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in RegionNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if fields := validate.CheckFields(in); fields != nil {
			return weberr.Validation(errors.New("invalid region"), fields)
		}

		now := time.Now().UTC()
		reg := Region{
			Code:      in.Code,
			Name:      in.Name,
			CreatedAt: now,
			UpdatedAt: now,
			Carriers:  []Carrier{},
		}

		if err := CreateRegion(ctx, h.DB, reg); err != nil {
			return err
		}

		h.notify(reg.Code)
		return web.Respond(ctx, w, reg, http.StatusCreated)
	}
}

func (h *Handlers) HandleUpdateRegion() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in RegionUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		reg, err := FetchRegion(ctx, h.DB, web.Param(r, "code"))
		if err != nil {
			if errors.Is(err, ErrRegionNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if in.Name != nil {
			reg.Name = *in.Name
		}
		reg.UpdatedAt = time.Now().UTC()

		if err := UpdateRegion(ctx, h.DB, reg); err != nil {
			return err
		}

		h.notify(reg.Code)
		return web.Respond(ctx, w, reg, http.StatusOK)
	}
}

func (h *Handlers) HandleDeleteRegion() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		code := web.Param(r, "code")

		if err := DeleteRegion(ctx, h.DB, code); err != nil {
			if errors.Is(err, ErrRegionNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		h.notify(code)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func (h *Handlers) HandleCreateCarrier() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in CarrierNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if fields := validate.CheckFields(in); fields != nil {
			return weberr.Validation(errors.New("invalid carrier"), fields)
		}

		code := web.Param(r, "code")
		if _, err := FetchRegion(ctx, h.DB, code); err != nil {
			if errors.Is(err, ErrRegionNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		active := true
		if in.Active != nil {
			active = *in.Active
		}

		now := time.Now().UTC()
		c := Carrier{
			ID:          validate.GenerateID(),
			RegionCode:  code,
			Name:        in.Name,
			LogoURL:     in.LogoURL,
			Currency:    in.Currency,
			HomePrice:   in.HomePrice,
			OfficePrice: in.OfficePrice,
			Active:      active,
			Position:    in.Position,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if c.Active && c.HomePrice == 0 && c.OfficePrice == 0 {
			h.Log.WithField("carrier", c.Name).Warn("active carrier has no priced delivery mode")
		}

		if err := CreateCarrier(ctx, h.DB, c); err != nil {
			return err
		}

		h.notify(code)
		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

func (h *Handlers) HandleUpdateCarrier() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in CarrierUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if fields := validate.CheckFields(in); fields != nil {
			return weberr.Validation(errors.New("invalid carrier"), fields)
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		c, err := FetchCarrier(ctx, h.DB, id)
		if err != nil {
			if errors.Is(err, ErrCarrierNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.LogoURL != nil {
			c.LogoURL = *in.LogoURL
		}
		if in.Currency != nil {
			c.Currency = *in.Currency
		}
		if in.HomePrice != nil {
			c.HomePrice = *in.HomePrice
		}
		if in.OfficePrice != nil {
			c.OfficePrice = *in.OfficePrice
		}
		if in.Active != nil {
			c.Active = *in.Active
		}
		if in.Position != nil {
			c.Position = *in.Position
		}
		c.UpdatedAt = time.Now().UTC()

		if c.Active && c.HomePrice == 0 && c.OfficePrice == 0 {
			h.Log.WithField("carrier", c.Name).Warn("active carrier has no priced delivery mode")
		}

		if err := UpdateCarrier(ctx, h.DB, c); err != nil {
			return err
		}

		h.notify(c.RegionCode)
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func (h *Handlers) HandleDeleteCarrier() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		c, err := FetchCarrier(ctx, h.DB, id)
		if err != nil {
			if errors.Is(err, ErrCarrierNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := DeleteCarrier(ctx, h.DB, id); err != nil {
			return err
		}

		h.notify(c.RegionCode)
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func (h *Handlers) notify(regionCode string) {
	h.BG.Add(func() error {
		h.Bus.Publish(pubsub.TopicDeliveryUpdated, regionCode)
		return nil
	})
}
