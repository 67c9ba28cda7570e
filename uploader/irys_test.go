package uploader

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestUploadTransactionIDShape(t *testing.T) {
	client := NewIrysClient("https://node1.irys.xyz", "", zerolog.Nop())
	client.now = func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}

	txID, err := client.Upload(context.Background(), []byte(`{"type":"geo-echo"}`), arweaveTags)
	assert.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ar_20260102030405_\d{1,5}$`), txID)
}

func TestUploadSamePayloadSameHash(t *testing.T) {
	client := NewIrysClient("https://node1.irys.xyz", "", zerolog.Nop())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	client.now = func() time.Time { return fixed }

	a, _ := client.Upload(context.Background(), []byte("payload"), nil)
	b, _ := client.Upload(context.Background(), []byte("payload"), nil)
	assert.Equal(t, a, b)
}

func TestUploadOversizePayloadStillSucceeds(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(bytes.Repeat([]byte("x"), freeTierLimit+1))

	client := NewIrysClient("https://node1.irys.xyz", "", zerolog.Nop())
	txID, err := client.Upload(context.Background(), buf.Bytes(), nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, txID)
}
