package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxStagedUploads bounds how many previewed files are held at once.
const maxStagedUploads = 8

// stagedUpload is a previewed CSV waiting for the user to confirm ingestion.
type stagedUpload struct {
	name string
	data []byte
}

// uploadStore keeps previewed uploads in memory under a random token so the
// ingest action can reuse the bytes instead of asking for the file again.
type uploadStore struct {
	items *expirable.LRU[string, stagedUpload]
}

func newUploadStore(ttl time.Duration) *uploadStore {
	return &uploadStore{
		items: expirable.NewLRU[string, stagedUpload](maxStagedUploads, nil, ttl),
	}
}

// Put stages data and returns its token.
func (s *uploadStore) Put(name string, data []byte) string {
	token := uuid.NewString()
	s.items.Add(token, stagedUpload{name: name, data: data})
	return token
}

// Take returns and forgets the upload staged under token. A token is good for
// one ingestion.
func (s *uploadStore) Take(token string) (stagedUpload, bool) {
	upload, ok := s.items.Get(token)
	if !ok {
		return stagedUpload{}, false
	}
	s.items.Remove(token)
	return upload, true
}
