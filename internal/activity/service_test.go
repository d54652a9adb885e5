package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fittrack/fittrack/internal/errorz"
)

type memStore struct {
	activities []Activity
	nextID     int64
	err        error
}

func (m *memStore) CreateActivity(_ context.Context, a *Activity) error {
	if m.err != nil {
		return m.err
	}

	m.nextID++
	a.ID = m.nextID
	m.activities = append(m.activities, *a)

	return nil
}

func (m *memStore) UpdateActivity(_ context.Context, id int64, rec Record) error {
	if m.err != nil {
		return m.err
	}

	for i, a := range m.activities {
		if a.ID == id {
			a.Type = rec.Type
			a.Duration = rec.Duration
			a.Calories = rec.Calories
			a.Date = rec.Date
			m.activities[i] = a
			return nil
		}
	}

	return errorz.ErrNotFound
}

func (m *memStore) DeleteActivity(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}

	for i, a := range m.activities {
		if a.ID == id {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return nil
		}
	}

	return nil
}

func (m *memStore) FindActivities(_ context.Context, f *Filter) ([]Activity, error) {
	if m.err != nil {
		return nil, m.err
	}

	out := make([]Activity, 0)
	for _, a := range m.activities {
		if len(f.OwnerIDs) > 0 {
			if a.OwnerID == nil {
				continue
			}
			match := false
			for _, id := range f.OwnerIDs {
				if *a.OwnerID == id {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, a)
	}

	return out, nil
}

func (m *memStore) FindActivitiesWithOwner(_ context.Context) ([]OwnedActivity, error) {
	if m.err != nil {
		return nil, m.err
	}

	out := make([]OwnedActivity, 0)
	for _, a := range m.activities {
		out = append(out, OwnedActivity{Activity: a})
	}

	return out, nil
}

func validRecord() Record {
	return Record{
		Type:     "Running",
		Duration: 30,
		Calories: 250,
		Date:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestService_Log(t *testing.T) {
	t.Run("ok, log an activity", func(t *testing.T) {
		store := &memStore{}
		svc := NewService(store)

		id, err := svc.Log(context.Background(), 7, validRecord())
		if err != nil {
			t.Fatalf("failed to log activity: %v", err)
		}

		if id == 0 {
			t.Errorf("expected a non-zero id")
		}

		if len(store.activities) != 1 {
			t.Fatalf("expected 1 activity, got %d", len(store.activities))
		}

		a := store.activities[0]
		if a.OwnerID == nil || *a.OwnerID != 7 {
			t.Errorf("got owner %v, want 7", a.OwnerID)
		}
	})

	t.Run("fail, invalid records", func(t *testing.T) {
		tests := map[string]struct {
			modify  func(*Record)
			wantKey string
		}{
			"empty type": {
				modify:  func(r *Record) { r.Type = "" },
				wantKey: "activityType",
			},
			"negative duration": {
				modify:  func(r *Record) { r.Duration = -1 },
				wantKey: "duration",
			},
			"negative calories": {
				modify:  func(r *Record) { r.Calories = -1 },
				wantKey: "calories",
			},
			"zero date": {
				modify:  func(r *Record) { r.Date = time.Time{} },
				wantKey: "date",
			},
		}

		for name, tc := range tests {
			t.Run(name, func(t *testing.T) {
				store := &memStore{}
				svc := NewService(store)

				rec := validRecord()
				tc.modify(&rec)

				_, err := svc.Log(context.Background(), 7, rec)

				var invalid errorz.InvalidInput
				if !errors.As(err, &invalid) {
					t.Fatalf("got error %v, want invalid input", err)
				}

				found := false
				for _, keyErr := range invalid {
					var keyed errorz.Keyed
					if errors.As(keyErr, &keyed) && keyed.Key == tc.wantKey {
						found = true
					}
				}

				if !found {
					t.Errorf("expected an error for key %q, got %v", tc.wantKey, invalid)
				}

				if len(store.activities) != 0 {
					t.Errorf("expected no writes, got %d", len(store.activities))
				}
			})
		}
	})

	t.Run("ok, zero duration and calories are allowed", func(t *testing.T) {
		svc := NewService(&memStore{})

		rec := validRecord()
		rec.Duration = 0
		rec.Calories = 0

		_, err := svc.Log(context.Background(), 7, rec)
		if err != nil {
			t.Errorf("got error %v, want nil", err)
		}
	})
}

func TestService_History(t *testing.T) {
	t.Run("ok, only the owner's activities", func(t *testing.T) {
		store := &memStore{}
		svc := NewService(store)

		if _, err := svc.Log(context.Background(), 1, validRecord()); err != nil {
			t.Fatalf("failed to log activity: %v", err)
		}
		if _, err := svc.Log(context.Background(), 2, validRecord()); err != nil {
			t.Fatalf("failed to log activity: %v", err)
		}

		got, err := svc.History(context.Background(), 1)
		if err != nil {
			t.Fatalf("failed to get history: %v", err)
		}

		if len(got) != 1 {
			t.Fatalf("expected 1 activity, got %d", len(got))
		}

		if got[0].OwnerID == nil || *got[0].OwnerID != 1 {
			t.Errorf("got owner %v, want 1", got[0].OwnerID)
		}
	})
}

func TestService_Update(t *testing.T) {
	t.Run("ok, update an activity", func(t *testing.T) {
		store := &memStore{}
		svc := NewService(store)

		id, err := svc.Log(context.Background(), 1, validRecord())
		if err != nil {
			t.Fatalf("failed to log activity: %v", err)
		}

		rec := validRecord()
		rec.Type = "Cycling"

		err = svc.Update(context.Background(), id, rec)
		if err != nil {
			t.Fatalf("failed to update activity: %v", err)
		}

		if store.activities[0].Type != "Cycling" {
			t.Errorf("got type %q, want %q", store.activities[0].Type, "Cycling")
		}
	})

	t.Run("fail, invalid record is not written", func(t *testing.T) {
		store := &memStore{}
		svc := NewService(store)

		id, err := svc.Log(context.Background(), 1, validRecord())
		if err != nil {
			t.Fatalf("failed to log activity: %v", err)
		}

		rec := validRecord()
		rec.Type = ""

		err = svc.Update(context.Background(), id, rec)

		var invalid errorz.InvalidInput
		if !errors.As(err, &invalid) {
			t.Fatalf("got error %v, want invalid input", err)
		}

		if store.activities[0].Type != "Running" {
			t.Errorf("expected the stored activity to be unchanged")
		}
	})

	t.Run("fail, activity not found", func(t *testing.T) {
		svc := NewService(&memStore{})

		err := svc.Update(context.Background(), 42, validRecord())
		if !errors.Is(err, errorz.ErrNotFound) {
			t.Errorf("got error %v, want %v", err, errorz.ErrNotFound)
		}
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("ok, delete is idempotent", func(t *testing.T) {
		store := &memStore{}
		svc := NewService(store)

		id, err := svc.Log(context.Background(), 1, validRecord())
		if err != nil {
			t.Fatalf("failed to log activity: %v", err)
		}

		for i := 0; i < 2; i++ {
			if err := svc.Delete(context.Background(), id); err != nil {
				t.Fatalf("delete %d: got error %v, want nil", i, err)
			}
		}

		if len(store.activities) != 0 {
			t.Errorf("expected 0 activities, got %d", len(store.activities))
		}
	})
}
