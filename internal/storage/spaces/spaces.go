package spaces

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/DMarby/instafilter/internal/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Provider implements a digitalocean spaces based photo storage
type Provider struct {
	spaces *s3.S3
	space  string
}

// New returns a new Provider instance, checking that the space is reachable
func New(ctx context.Context, space, endpoint, accessKey, secretKey string, forcePathStyle bool) (*Provider, error) {
	spacesSession := session.New(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"), // Needs to be us-east-1 for Spaces, or it'll fail
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	})

	spaces := s3.New(spacesSession)

	_, err := spaces.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(space),
	})
	if err != nil {
		return nil, err
	}

	return &Provider{
		spaces: spaces,
		space:  space,
	}, nil
}

// Get returns the photo data for a photo id, trying each of the known extensions
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	for _, extension := range storage.Extensions {
		data, err := p.get(ctx, id+extension)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}

		return data, err
	}

	return nil, storage.ErrNotFound
}

func (p *Provider) get(ctx context.Context, key string) ([]byte, error) {
	object := s3.GetObjectInput{
		Bucket: &p.space,
		Key:    aws.String(key),
	}

	output, err := p.spaces.GetObjectWithContext(ctx, &object)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("error getting %s: %w", key, err)
	}
	defer output.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, output.Body)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
