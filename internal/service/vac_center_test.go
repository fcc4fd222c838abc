package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVacCenterService_List(t *testing.T) {
	store := testutil.NewStore()
	store.VacCenters.Add(
		model.VaccineCenter{ID: 1, Name: "Bang Sue Grand Station", Tel: "02-000-1111"},
		model.VaccineCenter{ID: 2, Name: "Central Ladprao", Tel: "02-000-2222"},
	)
	svc := NewVacCenterService(testutil.NewServer(nil), store.VacCenters)

	centers, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, centers, 2)
	assert.Equal(t, "Bang Sue Grand Station", centers[0].Name)
}

func TestVacCenterService_ListEmpty(t *testing.T) {
	store := testutil.NewStore()
	svc := NewVacCenterService(testutil.NewServer(nil), store.VacCenters)

	centers, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, centers)
	assert.Empty(t, centers)
}

func TestVacCenterService_ListFailureIsOpaque(t *testing.T) {
	store := testutil.NewStore()
	store.VacCenters.Err = errors.New("connection refused")
	svc := NewVacCenterService(testutil.NewServer(nil), store.VacCenters)

	_, err := svc.List(context.Background())

	httpErr := requireHTTPError(t, err, http.StatusInternalServerError)
	assert.NotContains(t, httpErr.Message, "connection refused")
}
