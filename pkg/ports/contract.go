package ports

import (
	"context"
	"testing"
	"time"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMacroStoreContract runs a suite of tests to verify that a MacroStore implementation
// adheres to the defined interface contract.
func RunMacroStoreContract(t *testing.T, store MacroStore) {
	ctx := context.Background()
	userID := "contract-user-" + time.Now().Format("20060102150405")

	rounds := domain.Macro{
		Trigger:   "morning rounds",
		CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Actions: []domain.Intent{
			domain.ShowWorklist{},
			domain.LoadPatient{Identifier: "1"},
			domain.Order{Type: domain.OrderLab, Details: "cbc"},
		},
	}

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, userID, rounds), "Put should not return error")

		got, err := store.Get(ctx, userID, rounds.Trigger)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, rounds.Trigger, got.Trigger)
		assert.Equal(t, rounds.Actions, got.Actions, "actions must come back in order")
		assert.True(t, rounds.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, userID, "no such trigger")
		assert.ErrorIs(t, err, domain.ErrMacroNotFound)
	})

	t.Run("Users Are Isolated", func(t *testing.T) {
		_, err := store.Get(ctx, userID+"-other", rounds.Trigger)
		assert.ErrorIs(t, err, domain.ErrMacroNotFound)
	})

	t.Run("List", func(t *testing.T) {
		discharge := domain.Macro{
			Trigger: "discharge prep",
			Actions: []domain.Intent{domain.ShowSection{Section: domain.SectionMedications}, domain.GenerateNote{}},
		}
		require.NoError(t, store.Put(ctx, userID, discharge))
		defer func() { _ = store.Delete(ctx, userID, discharge.Trigger) }()

		list, err := store.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "discharge prep", list[0].Trigger, "list is sorted by trigger")
		assert.Equal(t, "morning rounds", list[1].Trigger)
		assert.Equal(t, discharge.Actions, list[0].Actions)
	})

	t.Run("List Empty User", func(t *testing.T) {
		list, err := store.List(ctx, userID+"-nobody")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, userID, rounds.Trigger), "Delete should not return error")

		_, err := store.Get(ctx, userID, rounds.Trigger)
		assert.ErrorIs(t, err, domain.ErrMacroNotFound, "Get after Delete should return ErrMacroNotFound")

		assert.NoError(t, store.Delete(ctx, userID, rounds.Trigger), "deleting twice is not an error")
	})
}
