package activity

import (
	"context"
	"errors"

	"github.com/fittrack/fittrack/internal/errorz"
)

// Service provides the rules for recording and managing activities.
//
// Log and History are scoped to an owner, which callers must take from
// the authenticated session, never from client input. The unscoped All,
// Update and Delete operations are reserved for the admin and must stay
// behind the admin authorization check of the transport layer.
type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// validate checks a record before it's written.
func validate(rec Record) error {
	var errs errorz.InvalidInput

	if rec.Type == "" {
		errs = append(errs, errorz.Keyed{Key: "activityType", Err: errors.New("must not be empty")})
	}

	if rec.Duration < 0 {
		errs = append(errs, errorz.Keyed{Key: "duration", Err: errors.New("must not be negative")})
	}

	if rec.Calories < 0 {
		errs = append(errs, errorz.Keyed{Key: "calories", Err: errors.New("must not be negative")})
	}

	if rec.Date.IsZero() {
		errs = append(errs, errorz.Keyed{Key: "date", Err: errors.New("must be provided")})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Log records a new activity for the given owner and returns its id.
func (s *Service) Log(ctx context.Context, ownerID int64, rec Record) (int64, error) {
	if err := validate(rec); err != nil {
		return 0, err
	}

	a := Activity{
		Type:     rec.Type,
		Duration: rec.Duration,
		Calories: rec.Calories,
		Date:     rec.Date,
		OwnerID:  &ownerID,
	}

	if err := s.store.CreateActivity(ctx, &a); err != nil {
		return 0, err
	}

	return a.ID, nil
}

// History returns all activities of the given owner, most recent first.
func (s *Service) History(ctx context.Context, ownerID int64) ([]Activity, error) {
	return s.store.FindActivities(ctx, &Filter{
		OwnerIDs: []int64{ownerID},
	})
}

// All returns every activity joined with its owner's email address,
// newest first. Admin functionality.
func (s *Service) All(ctx context.Context) ([]OwnedActivity, error) {
	return s.store.FindActivitiesWithOwner(ctx)
}

// Update overwrites the record fields of the activity with the given id.
// Admin functionality.
func (s *Service) Update(ctx context.Context, id int64, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}

	return s.store.UpdateActivity(ctx, id, rec)
}

// Delete removes the activity with the given id. Deleting a non-existent
// activity is not an error. Admin functionality.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteActivity(ctx, id)
}
