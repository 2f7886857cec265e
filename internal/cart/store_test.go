package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	st := NewStore(zerolog.Nop())

	cart, err := st.Load(context.Background(), newTestSession(t))
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestStore_SaveEmptyRemovesEntry(t *testing.T) {
	st := NewStore(zerolog.Nop())
	s := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, s, domain.Cart{product("1", 5).LineItem(1)}))
	_, err := s.Get(ctx, session.KeyCart)
	require.NoError(t, err)

	require.NoError(t, st.Save(ctx, s, domain.Cart{}))
	_, err = s.Get(ctx, session.KeyCart)
	assert.ErrorIs(t, err, session.ErrNotFound)

	cart, err := st.Load(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestStore_LoadFailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"not json", "{{{"},
		{"foreign shape", `{"items":[1,2,3]}`},
		{"zero quantity", `[{"productId":"1","productName":"a","price":1,"quantity":0}]`},
		{"negative price", `[{"productId":"1","productName":"a","price":-1,"quantity":1}]`},
		{"missing id", `[{"productName":"a","price":1,"quantity":1}]`},
		{"duplicate", `[{"productId":"1","price":1,"quantity":1},{"productId":"1","price":1,"quantity":2}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewStore(zerolog.Nop())
			s := newTestSession(t)
			require.NoError(t, s.Set(context.Background(), session.KeyCart, tt.stored))

			cart, err := st.Load(context.Background(), s)
			require.NoError(t, err)
			assert.Empty(t, cart)
		})
	}
}

type unavailableStorage struct{ session.Storage }

func (unavailableStorage) Get(context.Context, string, string) (string, error) {
	return "", errors.Join(session.ErrUnavailable, errors.New("connection refused"))
}

func TestStore_LoadStorageUnavailable(t *testing.T) {
	st := NewStore(zerolog.Nop())

	_, err := st.Load(context.Background(), session.New("sid", unavailableStorage{}))
	assert.ErrorIs(t, err, session.ErrUnavailable)
}
