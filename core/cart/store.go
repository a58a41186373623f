package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dvelichkov/storefront/core/product"
	"github.com/dvelichkov/storefront/validate"
	"github.com/sirupsen/logrus"
)

const sessionKey = "cart"

// Store keeps the cart inside the scs session blob. Every mutation
// writes the whole line list back, so whatever store backs the session
// manager is what makes the cart survive a page reload.
type Store struct {
	session *scs.SessionManager
	log     logrus.FieldLogger
}

func NewStore(sm *scs.SessionManager, log logrus.FieldLogger) *Store {
	return &Store{session: sm, log: log}
}

// Load rehydrates the cart from the session. A corrupt payload degrades
// to an empty cart: logged, never surfaced.
func (s *Store) Load(ctx context.Context) Cart {
	b := s.session.GetBytes(ctx, sessionKey)
	if b == nil {
		return Cart{Lines: []Line{}}
	}

	var lines []Line
	if err := json.Unmarshal(b, &lines); err != nil {
		s.log.WithField("message", err).Warn("discarding corrupt cart payload")
		s.session.Remove(ctx, sessionKey)
		return Cart{Lines: []Line{}}
	}

	return Cart{Lines: lines}
}

func (s *Store) save(ctx context.Context, c Cart) Cart {
	b, err := json.Marshal(c.Lines)
	if err != nil {
		s.log.WithField("message", err).Error("persisting cart")
		return c
	}
	s.session.Put(ctx, sessionKey, b)
	return c
}

// Add appends a new line under a fresh line ID. The product's option
// domains are copied in, so later catalog edits leave the line alone.
func (s *Store) Add(ctx context.Context, p product.Product, quantity int, color, size string) Cart {
	c := s.Load(ctx)

	c.Lines = append(c.Lines, Line{
		ID:        validate.GenerateID(),
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Currency:  p.Currency,
		ImageURL:  p.ImageURL,
		Colors:    append([]string{}, p.Colors...),
		Sizes:     append([]string{}, p.Sizes...),
		Color:     color,
		Size:      size,
		Quantity:  quantity,
		AddedAt:   time.Now().UTC(),
	})

	return s.save(ctx, c)
}

func (s *Store) Remove(ctx context.Context, lineID string) Cart {
	c := s.Load(ctx)

	lines := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ID != lineID {
			lines = append(lines, l)
		}
	}
	c.Lines = lines

	return s.save(ctx, c)
}

// SetQuantity ignores values below 1. Dropping a line is Remove's job.
func (s *Store) SetQuantity(ctx context.Context, lineID string, n int) Cart {
	c := s.Load(ctx)
	if n < 1 {
		return c
	}

	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].Quantity = n
			break
		}
	}

	return s.save(ctx, c)
}

// SetOptions merges the given choices into the line; nil means "leave as
// is". Choices outside the line's copied domains are rejected upstream.
func (s *Store) SetOptions(ctx context.Context, lineID string, color, size *string) Cart {
	c := s.Load(ctx)

	for i := range c.Lines {
		if c.Lines[i].ID != lineID {
			continue
		}
		if color != nil {
			c.Lines[i].Color = *color
		}
		if size != nil {
			c.Lines[i].Size = *size
		}
		break
	}

	return s.save(ctx, c)
}

// Clear empties the store. Only a confirmed order submission calls this.
func (s *Store) Clear(ctx context.Context) {
	s.session.Remove(ctx, sessionKey)
}
