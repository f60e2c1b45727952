package state

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	mem := NewMemoryStore()
	t.Cleanup(func() { mem.Close() })

	file, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	return map[string]Store{"memory": mem, "file": file}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "carbonDraft")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, store.Set(ctx, "carbonDraft", []byte("one"), 0))
			require.NoError(t, store.Set(ctx, "carbonDraft", []byte("two"), 0))

			got, err := store.Get(ctx, "carbonDraft")
			require.NoError(t, err)
			assert.Equal(t, "two", string(got))

			ok, err := store.Exists(ctx, "carbonDraft")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, store.Set(ctx, "client/a:carbonDraft", []byte("x"), 0))
			keys, err := store.Keys(ctx, "client/*")
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"client/a:carbonDraft"}, keys)

			require.NoError(t, store.Delete(ctx, "carbonDraft"))
			require.NoError(t, store.Delete(ctx, "carbonDraft"))
			ok, err = store.Exists(ctx, "carbonDraft")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Close())
			_, err = store.Get(ctx, "carbonDraft")
			assert.ErrorIs(t, err, ErrStoreClosed)
		})
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSerializers_RoundTrip(t *testing.T) {
	draft := map[string]string{
		"companyName": `<script>alert("x")</script> & co`,
		"notes":       strings.Repeat("long text ", 200),
	}

	for _, name := range []string{"json", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			s, err := SerializerByName(name)
			require.NoError(t, err)

			data, err := s.Marshal(draft)
			require.NoError(t, err)

			var out map[string]string
			require.NoError(t, s.Unmarshal(data, &out))
			assert.Equal(t, draft, out)
		})
	}
}

func TestMsgPackSerializer_RejectsGarbage(t *testing.T) {
	s := NewMsgPackSerializer()
	var out map[string]string

	assert.ErrorIs(t, s.Unmarshal(nil, &out), ErrInvalidData)
	assert.ErrorIs(t, s.Unmarshal([]byte{9, 1, 2}, &out), ErrInvalidData)
}

func TestTypedStore_InvalidData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	typed := NewTypedStore[map[string]string](store, NewJSONSerializer())
	require.NoError(t, store.Set(ctx, "carbonDraft", []byte("{not json"), 0))

	_, err := typed.Get(ctx, "carbonDraft")
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestSerializerByName_Unknown(t *testing.T) {
	_, err := SerializerByName("xml")
	assert.Error(t, err)
}
