// Package docstore persists month buckets in a single Firestore document whose
// fields are month names.
package docstore

import (
	"context"
	"fmt"
	"strings"

	"atlasinvoice/internal/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Config struct {
	ProjectID       string
	Collection      string
	Document        string
	CredentialsFile string
}

// Backend implements store.Backend on Firestore.
type Backend struct {
	client *firestore.Client
	doc    *firestore.DocumentRef
}

// Open connects to Firestore. FIRESTORE_EMULATOR_HOST is honored by the
// client library.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return New(client, cfg.Collection, cfg.Document), nil
}

func New(client *firestore.Client, collection, document string) *Backend {
	if collection == "" {
		collection = "data"
	}
	if document == "" {
		document = "inventory"
	}
	return &Backend{client: client, doc: client.Collection(collection).Doc(document)}
}

func (b *Backend) Name() string { return "firestore" }

func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) Load(ctx context.Context) (map[string]domain.MonthBucket, error) {
	snap, err := b.doc.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return map[string]domain.MonthBucket{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", b.doc.Path, err)
	}

	raw := map[string]bucketDoc{}
	if err := snap.DataTo(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.doc.Path, err)
	}

	out := make(map[string]domain.MonthBucket, len(raw))
	for month, doc := range raw {
		bucket, err := fromBucketDoc(month, doc)
		if err != nil {
			return nil, err
		}
		out[month] = bucket
	}
	return out, nil
}

// SaveMonth replaces one month field and leaves the other months untouched.
func (b *Backend) SaveMonth(ctx context.Context, month string, bucket domain.MonthBucket) error {
	data := map[string]any{month: toBucketDoc(bucket)}
	if _, err := b.doc.Set(ctx, data, firestore.Merge(firestore.FieldPath{month})); err != nil {
		return fmt.Errorf("set %s.%s: %w", b.doc.Path, month, err)
	}
	return nil
}
