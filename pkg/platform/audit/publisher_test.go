package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "stow/pkg/domain"
)

type captureStore struct {
	events []Event
}

func (s *captureStore) Append(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *captureStore) ListByRecord(_ context.Context, record id.RecordHash) ([]Event, error) {
	var out []Event
	for _, e := range s.events {
		if e.Record == record {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *captureStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	if len(s.events) <= limit {
		return s.events, nil
	}
	return s.events[len(s.events)-limit:], nil
}

func TestPublisher_Emit(t *testing.T) {
	t.Run("stamps missing timestamps", func(t *testing.T) {
		store := &captureStore{}
		pub := NewPublisher(store)

		err := pub.Emit(context.Background(), Event{Action: string(ActionAccessGranted)})
		require.NoError(t, err)
		require.Len(t, store.events, 1)
		assert.False(t, store.events[0].Timestamp.IsZero())
	})

	t.Run("keeps caller-supplied timestamps", func(t *testing.T) {
		store := &captureStore{}
		pub := NewPublisher(store)
		at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

		err := pub.Emit(context.Background(), Event{Action: string(ActionAccessRevoked), Timestamp: at})
		require.NoError(t, err)
		assert.Equal(t, at, store.events[0].Timestamp)
	})

	t.Run("derives category from action", func(t *testing.T) {
		store := &captureStore{}
		pub := NewPublisher(store)

		require.NoError(t, pub.Emit(context.Background(), Event{Action: string(ActionAccessGranted), Category: CategoryOperations}))
		require.NoError(t, pub.Emit(context.Background(), Event{Action: string(ActionPolicyChecked)}))

		assert.Equal(t, CategoryCompliance, store.events[0].Category)
		assert.Equal(t, CategoryOperations, store.events[1].Category)
	})
}

func TestAction_Category(t *testing.T) {
	assert.Equal(t, CategoryCompliance, ActionDelegateAdded.Category())
	assert.Equal(t, CategorySecurity, ActionLedgerPaused.Category())
	assert.Equal(t, CategoryOperations, Action("unknown_action").Category())
}
