package client

import (
	"context"
	"testing"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/naming"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairFiles(t *testing.T) {
	files := PairFiles("salon", UploadFile{Name: "IMG_1.JPG"}, UploadFile{Name: "IMG_2.png"})
	assert.Equal(t, "avant-salon.jpg", files[0].Filename)
	assert.Equal(t, "apres-salon.png", files[1].Filename)

	files = PairFiles("", UploadFile{Name: "a.jpg"}, UploadFile{Name: "b.jpg"})
	before, after := naming.Parse(files[0].Filename), naming.Parse(files[1].Filename)
	assert.Equal(t, naming.Before, before.Side)
	assert.Equal(t, naming.After, after.Side)
	assert.Equal(t, before.Key, after.Key)
	assert.NotEmpty(t, before.Key)
}

func TestSideFile(t *testing.T) {
	f, err := SideFile("after", "salon", UploadFile{Name: "x.webp"})
	require.NoError(t, err)
	assert.Equal(t, "apres-salon.webp", f.Filename)

	_, err = SideFile("middle", "salon", UploadFile{Name: "x.jpg"})
	assert.Error(t, err)

	_, err = SideFile("avant", "", UploadFile{Name: "x.jpg"})
	assert.Error(t, err)
}

func TestPairFiles_UploadedPairIsListed(t *testing.T) {
	c, _ := newBackend(t)
	login(t, c)
	ctx := context.Background()

	files := PairFiles("cuisine", jpegFile(""), jpegFile(""))
	result, err := c.Upload(ctx, models.CategoryAvantApres, files)
	require.NoError(t, err)
	require.Equal(t, 2, result.Uploaded)

	pairs, err := c.Pairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "cuisine", pairs[0].Key)
}
