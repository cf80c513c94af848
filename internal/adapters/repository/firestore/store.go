// Package firestore implements repository.Store on Google Cloud Firestore,
// one collection per category.
package firestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
)

// EmulatorHostEnv is read by the Firestore client; when set, Open connects
// without credentials.
const EmulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// Configuration errors reported by Open.
var (
	ErrMissingCredentials = errors.New("firestore credentials are not configured")
	ErrInvalidCredentials = errors.New("firestore credentials are invalid")
)

// ErrInvalidCategory is returned when a category cannot be used as a
// collection id.
var ErrInvalidCategory = errors.New("category is not a valid collection id")

// scoreDoc is the stored document. Field names match the public wire format.
type scoreDoc struct {
	Name       string    `firestore:"name"`
	Score      float64   `firestore:"score"`
	Difficulty string    `firestore:"difficulty"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func (d scoreDoc) entry(id string) model.ScoreEntry {
	return model.ScoreEntry{
		Name:      d.Name,
		Score:     d.Score,
		Category:  d.Difficulty,
		CreatedAt: d.CreatedAt.UTC(),
		ID:        id,
		Seq:       d.CreatedAt.UnixNano(),
	}
}

// Store keeps scores in Firestore.
//
// Firestore has no insertion counter, so ties are broken by createdAt and
// Seq carries its Unix nanoseconds.
type Store struct {
	client *firestore.Client
	prefix string
}

var _ repository.Store = (*Store)(nil)
var _ repository.Counter = (*Store)(nil)

type serviceAccount struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

// decodeCredentials turns the base64 service-account key into JSON and
// returns the project it belongs to.
func decodeCredentials(b64 string) ([]byte, string, error) {
	if strings.TrimSpace(b64) == "" {
		return nil, "", ErrMissingCredentials
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, "", fmt.Errorf("%w: base64: %w", ErrInvalidCredentials, err)
	}
	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, "", fmt.Errorf("%w: json: %w", ErrInvalidCredentials, err)
	}
	if sa.Type != "service_account" {
		return nil, "", fmt.Errorf("%w: type %q is not service_account", ErrInvalidCredentials, sa.Type)
	}
	return raw, sa.ProjectID, nil
}

// Open builds a Firestore client. Outside the emulator, credentials are
// required and Open fails fast without them.
func Open(ctx context.Context, opts ...Option) (*Store, error) {
	o := options{collectionPrefix: DefaultCollectionPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []option.ClientOption
	projectID := o.projectID

	if os.Getenv(EmulatorHostEnv) != "" {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
		if projectID == "" {
			projectID = "podium-local"
		}
	} else {
		creds, credsProject, err := decodeCredentials(o.credentialsBase64)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithCredentialsJSON(creds))
		if projectID == "" {
			projectID = credsProject
		}
		if projectID == "" {
			projectID = firestore.DetectProjectID
		}
	}

	client, err := firestore.NewClient(ctx, projectID, clientOpts...)
	if err != nil {
		return nil, repository.WrapStorage("firestore.open", err)
	}
	return &Store{client: client, prefix: o.collectionPrefix}, nil
}

// collection returns nil when the category does not name a single
// collection, e.g. when it contains a slash.
func (s *Store) collection(category string) *firestore.CollectionRef {
	return s.client.Collection(s.prefix + category)
}

// Insert implements repository.Store.
func (s *Store) Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	doc := scoreDoc{Name: e.Name, Score: e.Score, Difficulty: category, CreatedAt: e.CreatedAt}

	coll := s.collection(category)
	if coll == nil {
		return model.ScoreEntry{}, repository.WrapStorage("firestore.insert", fmt.Errorf("%w: %q", ErrInvalidCategory, category))
	}
	if _, err := coll.Doc(e.ID).Create(ctx, doc); err != nil {
		return model.ScoreEntry{}, repository.WrapStorage("firestore.insert", err)
	}
	return doc.entry(e.ID), nil
}

// TopN implements repository.Store.
func (s *Store) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	if n < 1 {
		return nil, repository.ErrInvalidLimit
	}

	// Nothing can be stored under a category that is not a collection name.
	coll := s.collection(category)
	if coll == nil {
		return []model.ScoreEntry{}, nil
	}

	iter := coll.
		OrderBy("score", firestore.Desc).
		OrderBy("createdAt", firestore.Asc).
		Limit(n).
		Documents(ctx)
	defer iter.Stop()

	out := make([]model.ScoreEntry, 0, n)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, repository.WrapStorage("firestore.top_n", err)
		}
		var doc scoreDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, repository.WrapStorage("firestore.top_n", err)
		}
		out = append(out, doc.entry(snap.Ref.ID))
	}
	return out, nil
}

// Categories lists collections carrying the store prefix.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	iter := s.client.Collections(ctx)
	names := make([]string, 0)
	for {
		ref, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, repository.WrapStorage("firestore.categories", err)
		}
		if name, ok := strings.CutPrefix(ref.ID, s.prefix); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Count sums a server-side count aggregation over every category collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, c := range categories {
		res, err := s.collection(c).NewAggregationQuery().WithCount("all").Get(ctx)
		if err != nil {
			return 0, repository.WrapStorage("firestore.count", err)
		}
		v, ok := res["all"].(*firestorepb.Value)
		if !ok {
			return 0, repository.WrapStorage("firestore.count", fmt.Errorf("unexpected aggregation result %T", res["all"]))
		}
		total += int(v.GetIntegerValue())
	}
	return total, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}
