package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dvelichkov/storefront/api/web"
	"github.com/dvelichkov/storefront/api/weberr"
	"github.com/dvelichkov/storefront/core/product"
	"github.com/dvelichkov/storefront/validate"
	"github.com/jmoiron/sqlx"
)

type ItemNew struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

type QuantityUp struct {
	Quantity int `json:"quantity"`
}

type OptionsUp struct {
	Color *string `json:"color"`
	Size  *string `json:"size"`
}

func HandleShow(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, view(store.Load(ctx)), http.StatusOK)
	}
}

func HandleAddItem(db *sqlx.DB, store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if fields := validate.CheckFields(in); fields != nil {
			return weberr.Validation(errors.New("invalid cart item"), fields)
		}

		p, err := product.Fetch(ctx, db, in.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", in.ProductID, err)
		}

		if err := checkOption(p.Colors, in.Color); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}
		if err := checkOption(p.Sizes, in.Size); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c := store.Add(ctx, p, in.Quantity, in.Color, in.Size)
		return web.Respond(ctx, w, view(c), http.StatusCreated)
	}
}

func HandleRemoveItem(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c := store.Remove(ctx, web.Param(r, "line_id"))
		return web.Respond(ctx, w, view(c), http.StatusOK)
	}
}

func HandleSetQuantity(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in QuantityUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		c := store.SetQuantity(ctx, web.Param(r, "line_id"), in.Quantity)
		return web.Respond(ctx, w, view(c), http.StatusOK)
	}
}

func HandleSetOptions(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in OptionsUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		lineID := web.Param(r, "line_id")
		c := store.Load(ctx)
		for _, l := range c.Lines {
			if l.ID != lineID {
				continue
			}
			if in.Color != nil {
				if err := checkOption(l.Colors, *in.Color); err != nil {
					return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
				}
			}
			if in.Size != nil {
				if err := checkOption(l.Sizes, *in.Size); err != nil {
					return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
				}
			}
		}

		c = store.SetOptions(ctx, lineID, in.Color, in.Size)
		return web.Respond(ctx, w, view(c), http.StatusOK)
	}
}

func checkOption(domain []string, choice string) error {
	if choice == "" {
		return nil
	}
	for _, d := range domain {
		if d == choice {
			return nil
		}
	}
	return fmt.Errorf("option %q is not offered for this product", choice)
}

type cartView struct {
	Items      []Line   `json:"items"`
	Count      int      `json:"count"`
	Total      int      `json:"total"`
	Incomplete []string `json:"incomplete,omitempty"`
}

func view(c Cart) cartView {
	return cartView{
		Items:      c.Lines,
		Count:      c.Count(),
		Total:      c.Total(),
		Incomplete: c.Incomplete(),
	}
}
