package registry_test

import (
	"context"
	"testing"

	"sms-dispatch-gateway/internal/adapters/provider/generichttp"
	"sms-dispatch-gateway/internal/adapters/provider/registry"
	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_AllProviderTypesCovered(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	for _, typ := range []domain.ProviderType{
		domain.ProviderBoomcast, domain.ProviderMiMSMS, domain.ProviderAWSSNS, domain.ProviderGeneric,
	} {
		a, err := reg.Lookup(typ)
		require.NoError(t, err, "type %s", typ)
		require.NotNil(t, a)
	}
}

func TestLookup_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := registry.New().Lookup(domain.ProviderType("smpp"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestGenericAdapter_IsDeclaredCapabilityGap(t *testing.T) {
	t.Parallel()

	out := generichttp.New().Send(context.Background(), domain.Provider{Type: domain.ProviderGeneric}, "123", "hi")

	require.False(t, out.Success)
	assert.Equal(t, ports.FailureUnsupported, out.Kind)
	assert.Equal(t, "Provider method implementation missing", out.ErrorDetail)
	assert.False(t, out.Kind.Retryable())
}
