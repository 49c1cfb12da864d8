package git

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var commitSHA = regexp.MustCompile(`^(?:[0-9a-f]{40}|[0-9a-f]{64})$`)

// IsCommitSHA reports whether ref is a full SHA-1 or SHA-256 commit id.
func IsCommitSHA(ref string) bool {
	return commitSHA.MatchString(ref)
}

// CachedHost keeps fetched file contents in memory. Only reads at a full commit SHA are cached,
// content behind a branch or tag name can change and is always fetched.
type CachedHost struct {
	Host

	files *expirable.LRU[string, []byte]
}

// NewCachedHost wraps host with a content cache. A non-positive size returns host unchanged.
func NewCachedHost(host Host, size int, ttl time.Duration) Host {
	if size <= 0 {
		return host
	}
	return &CachedHost{
		Host:  host,
		files: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (c *CachedHost) GetRaw(ctx context.Context, projectID any, ref, fileName string) ([]byte, error) {
	if !IsCommitSHA(ref) {
		return c.Host.GetRaw(ctx, projectID, ref, fileName)
	}

	key := fmt.Sprintf("%v@%s:%s", projectID, ref, fileName)
	if content, ok := c.files.Get(key); ok {
		return content, nil
	}

	content, err := c.Host.GetRaw(ctx, projectID, ref, fileName)
	if err != nil {
		return nil, err
	}

	c.files.Add(key, content)
	return content, nil
}
