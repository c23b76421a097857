package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FRONTEND_URL", "https://roommates.test/")
	t.Setenv("LISTING_FEE_CENTS", "")
	t.Setenv("SEARCH_RADIUS_METERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(3000), cfg.Payment.ListingFeeCents)
	require.Equal(t, 10000.0, cfg.Search.RadiusMeters)
	require.Equal(t, "https://roommates.test/payment-cancelled", cfg.Payment.CancelURL)
	require.Contains(t, cfg.Payment.SuccessURL, "{CHECKOUT_SESSION_ID}")
	require.Equal(t, 5, cfg.Storage.MaxImages)
	require.Equal(t, 72*time.Hour, cfg.Redis.EventTTL())
}

func TestLoadRejectsBadListingFee(t *testing.T) {
	t.Setenv("LISTING_FEE_CENTS", "free")

	_, err := Load()
	require.Error(t, err)
}
