package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"horizon/internal/apperr"
	"horizon/internal/model"
)

func strPtr(s string) *string { return &s }

func TestOrgGet(t *testing.T) {
	ctx := context.Background()
	orgs := newFakeOrgRepo()
	svc := NewOrgService(orgs)

	org, err := orgs.Create(ctx, &model.Organization{Name: "Acme", Timezone: "UTC", Currency: "USD"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)

	_, err = svc.Get(ctx, primitive.NewObjectID())
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestOrgUpdate(t *testing.T) {
	ctx := context.Background()
	orgs := newFakeOrgRepo()
	svc := NewOrgService(orgs)

	org, err := orgs.Create(ctx, &model.Organization{Name: "Acme", Timezone: "UTC", Currency: "USD"})
	require.NoError(t, err)

	t.Run("updates provided fields only", func(t *testing.T) {
		updated, err := svc.Update(ctx, org.ID, &model.UpdateOrgRequest{
			Name:     strPtr("  Acme Corp  "),
			Timezone: strPtr("Asia/Kolkata"),
			Currency: strPtr("INR"),
		})
		require.NoError(t, err)
		require.Equal(t, "Acme Corp", updated.Name)
		require.Equal(t, "Asia/Kolkata", updated.Timezone)
		require.Equal(t, "INR", updated.Currency)
	})

	t.Run("unsupported currency", func(t *testing.T) {
		_, err := svc.Update(ctx, org.ID, &model.UpdateOrgRequest{Currency: strPtr("BTC")})
		require.Error(t, err)
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := svc.Update(ctx, org.ID, &model.UpdateOrgRequest{Timezone: strPtr("Mars/Olympus")})
		require.Error(t, err)
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("empty request", func(t *testing.T) {
		_, err := svc.Update(ctx, org.ID, &model.UpdateOrgRequest{})
		require.Error(t, err)
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("settings replacement", func(t *testing.T) {
		updated, err := svc.Update(ctx, org.ID, &model.UpdateOrgRequest{
			Settings: &model.OrgSettings{DateFormat: "DD/MM/YYYY", FiscalYearStart: "01-01"},
		})
		require.NoError(t, err)
		require.Equal(t, "DD/MM/YYYY", updated.Settings.DateFormat)
	})
}
