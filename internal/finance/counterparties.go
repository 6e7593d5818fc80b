package finance

import (
	"context"
	"strings"

	"github.com/OybekDeveloper/leora.v2-sub001/internal/apperr"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
)

// SearchKey normalizes a display name: trimmed, lower-cased, single-spaced.
func SearchKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CreateCounterparty adds a counterparty. Names must be unique after normalization.
func (s *Store) CreateCounterparty(ctx context.Context, name string, origin models.Origin) (*models.Counterparty, error) {
	var out models.Counterparty
	err := s.mutate(ctx, func() error {
		c, err := s.createCounterpartyLocked(name)
		if err != nil {
			return err
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Counterparty created", "counterparty_id", out.ID)
	return &out, nil
}

func (s *Store) createCounterpartyLocked(name string) (*models.Counterparty, error) {
	display := strings.Join(strings.Fields(name), " ")
	if display == "" {
		return nil, apperr.Validationf(apperr.ErrNameRequired, "counterparty")
	}
	key := SearchKey(display)
	if existing := s.counterpartyByKeyLocked(key); existing != nil {
		return nil, apperr.Validationf(apperr.ErrDuplicateCounterparty, "%q", existing.DisplayName)
	}
	c := &models.Counterparty{
		ID:          s.ids.New("cp"),
		DisplayName: display,
		SearchKey:   key,
	}
	s.stamp(&c.CreatedAt, &c.UpdatedAt)
	s.counterparties[c.ID] = c
	s.persistNewCounterparty(c)
	return c, nil
}

// RenameCounterparty changes a counterparty's display name and the cached
// name on its debts.
func (s *Store) RenameCounterparty(ctx context.Context, id, name string, origin models.Origin) (*models.Counterparty, error) {
	var out models.Counterparty
	err := s.mutate(ctx, func() error {
		c, ok := s.counterparties[id]
		if !ok {
			return apperr.NotFound("counterparty", id)
		}
		display := strings.Join(strings.Fields(name), " ")
		if display == "" {
			return apperr.Validationf(apperr.ErrNameRequired, "counterparty")
		}
		key := SearchKey(display)
		if existing := s.counterpartyByKeyLocked(key); existing != nil && existing.ID != id {
			return apperr.Validationf(apperr.ErrDuplicateCounterparty, "%q", existing.DisplayName)
		}
		c.DisplayName = display
		c.SearchKey = key
		s.stamp(&c.CreatedAt, &c.UpdatedAt)
		s.persistCounterparty(c)

		for _, d := range s.debts {
			if d.CounterpartyID == id {
				d.CounterpartyName = display
				s.stamp(&d.CreatedAt, &d.UpdatedAt)
				s.persistDebt(d)
			}
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCounterparty removes a counterparty no debt refers to.
func (s *Store) DeleteCounterparty(ctx context.Context, id string, origin models.Origin) error {
	return s.mutate(ctx, func() error {
		if _, ok := s.counterparties[id]; !ok {
			return apperr.NotFound("counterparty", id)
		}
		for _, d := range s.debts {
			if d.CounterpartyID == id {
				return apperr.Validationf(apperr.ErrCounterpartyInUse, "debt %s", d.ID)
			}
		}
		delete(s.counterparties, id)
		s.persistDeleteCounterparty(id)
		return nil
	})
}

func (s *Store) counterpartyByKeyLocked(key string) *models.Counterparty {
	for _, c := range s.counterparties {
		if c.SearchKey == key {
			return c
		}
	}
	return nil
}

// resolveCounterpartyLocked points a new debt at an existing counterparty, by
// ID or by name, creating one from the name when none matches.
func (s *Store) resolveCounterpartyLocked(d *models.Debt) error {
	if d.CounterpartyID != "" {
		c, ok := s.counterparties[d.CounterpartyID]
		if !ok {
			return apperr.NotFound("counterparty", d.CounterpartyID)
		}
		d.CounterpartyName = c.DisplayName
		return nil
	}
	key := SearchKey(d.CounterpartyName)
	if key == "" {
		return nil
	}
	if c := s.counterpartyByKeyLocked(key); c != nil {
		d.CounterpartyID = c.ID
		d.CounterpartyName = c.DisplayName
		return nil
	}
	c, err := s.createCounterpartyLocked(d.CounterpartyName)
	if err != nil {
		return err
	}
	d.CounterpartyID = c.ID
	d.CounterpartyName = c.DisplayName
	return nil
}
