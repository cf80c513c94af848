package firestore

// DefaultCollectionPrefix names one collection per category:
// leaderboard-easy, leaderboard-hard, ...
const DefaultCollectionPrefix = "leaderboard-"

// Option configures Open.
type Option func(*options)

type options struct {
	projectID         string
	credentialsBase64 string
	collectionPrefix  string
}

// WithProjectID sets the project. When empty it is read from the credentials.
func WithProjectID(id string) Option {
	return func(o *options) { o.projectID = id }
}

// WithCredentialsBase64 supplies a base64-encoded service-account JSON key.
func WithCredentialsBase64(b64 string) Option {
	return func(o *options) { o.credentialsBase64 = b64 }
}

// WithCollectionPrefix changes the per-category collection prefix.
func WithCollectionPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.collectionPrefix = prefix
		}
	}
}
