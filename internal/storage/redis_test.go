package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisFixture(t *testing.T) *Redis {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedis(rdb, "mcq:")
}

func TestRedisReadMissingFile(t *testing.T) {
	r := newRedisFixture(t)

	_, _, err := r.Read(context.Background(), "answers.json")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestRedisCreateThenUpdate(t *testing.T) {
	r := newRedisFixture(t)
	ctx := context.Background()

	require.NoError(t, r.Write(ctx, "answers.json", []byte(`[]`), ""))

	data, ver, err := r.Read(ctx, "answers.json")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
	require.NotEmpty(t, ver)

	require.NoError(t, r.Write(ctx, "answers.json", []byte(`[1]`), ver))

	data, ver2, err := r.Read(ctx, "answers.json")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(data))
	assert.NotEqual(t, ver, ver2)
}

func TestRedisStaleTokenIsConflict(t *testing.T) {
	r := newRedisFixture(t)
	ctx := context.Background()

	require.NoError(t, r.Write(ctx, "answers.json", []byte(`[]`), ""))
	_, ver, err := r.Read(ctx, "answers.json")
	require.NoError(t, err)

	require.NoError(t, r.Write(ctx, "answers.json", []byte(`[1]`), ver))

	err = r.Write(ctx, "answers.json", []byte(`[2]`), ver)
	assert.ErrorIs(t, err, ErrConflict)

	// Create-new over an existing file conflicts as well.
	err = r.Write(ctx, "answers.json", []byte(`[3]`), "")
	assert.ErrorIs(t, err, ErrConflict)

	// The losing writes never landed.
	data, _, err := r.Read(ctx, "answers.json")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(data))
}

func TestRedisCollectionsAreIndependent(t *testing.T) {
	r := newRedisFixture(t)
	ctx := context.Background()

	require.NoError(t, r.Write(ctx, "answers.json", []byte(`["a"]`), ""))
	require.NoError(t, r.Write(ctx, "pending-students.json", []byte(`["p"]`), ""))

	data, _, err := r.Read(ctx, "answers.json")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(data))

	data, _, err = r.Read(ctx, "pending-students.json")
	require.NoError(t, err)
	assert.Equal(t, `["p"]`, string(data))
}
