package render

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/chainscan/lib/block/types"
	"github.com/tarancss/chainscan/scanner/state"
)

func snapshot() state.Snapshot {
	best := types.Result{
		Chain:    "BTC",
		Address:  "1BoatSLRHtKNngkdXEeobR76b53LETtpyT",
		Balance:  decimal.RequireFromString("0.01"),
		PriceUSD: decimal.RequireFromString("50000"),
	}

	return state.Snapshot{
		Checked: 3830672,
		Recent: []types.Result{
			{Chain: "ETH", Address: "0x357dd3856d856197c1a000bbAb4aBCB97Dfc92c4", Balance: decimal.Zero, PriceUSD: decimal.RequireFromString("3000")},
			best,
		},
		Best:  &best,
		Taken: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestWrite(t *testing.T) {
	var b bytes.Buffer

	require.NoError(t, Write(&b, snapshot()))

	out := b.String()
	assert.Contains(t, out, "Checked Wallets: 3 830 672")
	assert.Contains(t, out, "PRICE USD")
	assert.Contains(t, out, "0x357dd385...")
	assert.Contains(t, out, "0.01000000")
	assert.Contains(t, out, "$50,000.00")
	assert.Contains(t, out, "Value found! BTC 0.01000000 ~ $500.00\n1BoatSLRHtKNngkdXEeobR76b53LETtpyT")

	b.Reset()
	require.NoError(t, Write(&b, state.Snapshot{}))
	assert.Contains(t, b.String(), "No value found yet")
}

func TestTerminal(t *testing.T) {
	var b bytes.Buffer

	NewTerminal(&b, true).Render(snapshot())
	assert.True(t, strings.HasPrefix(b.String(), clearScreen))

	b.Reset()
	NewTerminal(&b, false).Render(snapshot())
	assert.True(t, strings.HasPrefix(b.String(), "Wallet Scanner"))
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0", "$0.00"},
		{"999.999", "$1,000.00"},
		{"1122.87", "$1,122.87"},
		{"1234567.8", "$1,234,567.80"},
		{"-12345", "-$12,345.00"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, USD(decimal.RequireFromString(c.in)), c.in)
	}

	assert.Equal(t, "0", Count(0))
	assert.Equal(t, "999", Count(999))
	assert.Equal(t, "3 834 210", Count(3834210))

	assert.Equal(t, "short", Short("short"))
	assert.Equal(t, "1BoatSLRHt...", Short("1BoatSLRHtKNngkdXEeobR76b53LETtpyT"))
	assert.Equal(t, "ééééééééé€...", Short("ééééééééé€€€€€€€"))
	assert.Equal(t, "ééééé", Short("ééééé"))
}

func TestExportLocal(t *testing.T) {
	dir := t.TempDir()

	locs, err := NewLocal(dir).Export(context.Background(), "snapshot", snapshot())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "snapshot.json"), filepath.Join(dir, "snapshot.txt")}, locs)

	js, err := os.ReadFile(locs[0])
	require.NoError(t, err)

	var got state.Snapshot
	require.NoError(t, json.Unmarshal(js, &got))
	assert.Equal(t, uint64(3830672), got.Checked)
	require.NotNil(t, got.Best)
	assert.Equal(t, "BTC", got.Best.Chain)

	txt, err := os.ReadFile(locs[1])
	require.NoError(t, err)
	assert.Contains(t, string(txt), "Value found!")
}

// fakeUploader keeps the uploaded objects.
type fakeUploader struct {
	s3manageriface.UploaderAPI
	objects map[string][]byte
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.objects[*in.Bucket+"/"+*in.Key] = b

	return &s3manager.UploadOutput{Location: "https://" + *in.Bucket + ".s3.amazonaws.com/" + *in.Key}, nil
}

func TestExportS3(t *testing.T) {
	up := &fakeUploader{objects: map[string][]byte{}}
	e := &Exporter{bucket: "scans", uploader: up}

	locs, err := e.Export(context.Background(), "run-1", snapshot())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://scans.s3.amazonaws.com/run-1.json", "https://scans.s3.amazonaws.com/run-1.txt"}, locs)
	assert.Contains(t, up.objects, "scans/run-1.json")
	assert.Contains(t, string(up.objects["scans/run-1.txt"]), "Checked Wallets")
}
