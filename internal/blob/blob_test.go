package blob

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/store"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDBStoreStore(t *testing.T) {
	database := db.NewTestDB(t)
	s := &DBStore{DB: database}
	ctx := context.Background()

	url, err := s.Store(ctx, testPNG(t), "items/u1/1-abc.jpg")
	require.NoError(t, err)

	id, ok := ImageID(url)
	require.True(t, ok, "url %q should carry an image id", url)

	data, mime, err := store.GetImage(ctx, database, id)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.NotEmpty(t, data)
}

func TestDBStoreRemove(t *testing.T) {
	database := db.NewTestDB(t)
	s := &DBStore{DB: database}
	ctx := context.Background()

	url, err := s.Store(ctx, testPNG(t), "found/u1/1-abc.jpg")
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, url))

	id, _ := ImageID(url)
	data, _, err := store.GetImage(ctx, database, id)
	require.NoError(t, err)
	assert.Nil(t, data)

	assert.NoError(t, s.Remove(ctx, url), "removing twice is a no-op")
	assert.NoError(t, s.Remove(ctx, "https://elsewhere/x.jpg"))
}

func TestProfileFor(t *testing.T) {
	assert.Equal(t, imaging.Evidence, ProfileFor("claims/u1/1-abc.jpg"))
	assert.Equal(t, imaging.Listing, ProfileFor("items/u1/1-abc.jpg"))
	assert.Equal(t, imaging.Listing, ProfileFor("found/u1/1-abc.jpg"))
	assert.Equal(t, imaging.Listing, ProfileFor("unknown"))
}

func TestDBStoreRejectsNonImage(t *testing.T) {
	s := &DBStore{DB: db.NewTestDB(t)}

	_, err := s.Store(context.Background(), []byte("%PDF-1.4"), "claims/u1/1-abc.jpg")
	assert.Error(t, err)
}

func TestObjectPath(t *testing.T) {
	at := time.UnixMilli(1760000000123)
	path := ObjectPath(KindClaim, "user-1", at)

	assert.Regexp(t, regexp.MustCompile(`^claims/user-1/1760000000123-[0-9a-f]{9}\.jpg$`), path)
	assert.NotEqual(t, path, ObjectPath(KindClaim, "user-1", at))
}

func TestImageID(t *testing.T) {
	id, ok := ImageID("/api/images/abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = ImageID("https://elsewhere/x.jpg")
	assert.False(t, ok)

	_, ok = ImageID(URLPrefix)
	assert.False(t, ok)
}
