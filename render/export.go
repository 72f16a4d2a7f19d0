package render

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tarancss/chainscan/scanner/state"
)

// Exporter saves snapshots as <prefix>.json and <prefix>.txt, either to a local directory or to an S3 bucket.
type Exporter struct {
	dir      string
	bucket   string
	uploader s3manageriface.UploaderAPI
}

// NewLocal returns an Exporter writing to dir. An empty dir means the working directory.
func NewLocal(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// NewS3 returns an Exporter uploading to bucket.
func NewS3(region, bucket string) (*Exporter, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}

	return &Exporter{bucket: bucket, uploader: s3manager.NewUploader(sess)}, nil
}

// Export saves snap and returns the locations written.
func (e *Exporter) Export(ctx context.Context, prefix string, snap state.Snapshot) ([]string, error) {
	js, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "can not encode snapshot into JSON")
	}

	var txt bytes.Buffer
	if err = Write(&txt, snap); err != nil {
		return nil, errors.Wrap(err, "rendering snapshot")
	}

	files := []struct {
		name string
		data []byte
	}{
		{prefix + ".json", js},
		{prefix + ".txt", txt.Bytes()},
	}

	locations := make([]string, 0, len(files))

	for _, f := range files {
		loc, err := e.save(ctx, f.name, f.data)
		if err != nil {
			return locations, err
		}

		log.Info().Str("location", loc).Msg("Snapshot saved")

		locations = append(locations, loc)
	}

	return locations, nil
}

func (e *Exporter) save(ctx context.Context, name string, data []byte) (string, error) {
	if e.uploader == nil {
		path := filepath.Join(e.dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // snapshots are not secret
			return "", errors.Wrapf(err, "writing %s", path)
		}

		return path, nil
	}

	result, err := e.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(name),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload %s into S3", name)
	}

	return result.Location, nil
}
