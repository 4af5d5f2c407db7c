package store

import (
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// seenCache is a disk-backed bloom filter that sits in front of the
// saved_pages existence query. Bloom filters have no false negatives:
// a "not seen" answer is certain and lets hasSeen skip the round-trip
// SQL query; a "maybe seen" answer still falls through to the
// authoritative query, so the filter can never turn a real page into a
// false "not seen". Sized for 100,000 URLs at a 0.1% false-positive
// rate, same as the teacher's in-memory crawl-scoped tracker, now
// shared across sessions in one long-lived store.
type seenCache struct {
	mu      sync.Mutex
	filter  *bloom.BloomFilter
	file    *os.File
	mmap    mmap.MMap
	path    string
	added   uint64
	flushAt uint64
}

func newSeenCache() (*seenCache, error) {
	filter := bloom.NewWithEstimates(100000, 0.001)

	f, err := os.CreateTemp(os.TempDir(), "crawlkeep-seen-*.bloom")
	if err != nil {
		return nil, fmt.Errorf("create bloom temp file: %w", err)
	}
	path := f.Name()

	size := filter.Cap()
	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("truncate bloom file: %w", err)
	}

	mapped, err := mmap.MapRegion(f, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("mmap bloom file: %w", err)
	}

	data, err := filter.MarshalBinary()
	if err != nil {
		_ = mapped.Unmap()
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("marshal bloom filter: %w", err)
	}
	copy(mapped, data)

	return &seenCache{
		filter:  filter,
		file:    f,
		mmap:    mapped,
		path:    path,
		flushAt: 1000,
	}, nil
}

func key(sessionID int64, url string) string {
	return fmt.Sprintf("%d:%s", sessionID, url)
}

// maybeSeen reports whether (sessionID, url) might already be saved. A
// false return is certain; a true return still needs the SQL query.
func (c *seenCache) maybeSeen(sessionID int64, url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.TestString(key(sessionID, url))
}

// markSeen records (sessionID, url) as saved, for future maybeSeen calls.
func (c *seenCache) markSeen(sessionID int64, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.AddString(key(sessionID, url))
	c.added++
	if c.added >= c.flushAt {
		_ = c.flushLocked()
	}
}

func (c *seenCache) flushLocked() error {
	data, err := c.filter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) <= len(c.mmap) {
		copy(c.mmap, data)
	}
	if err := c.mmap.Flush(); err != nil {
		return fmt.Errorf("flush bloom mmap: %w", err)
	}
	c.added = 0
	return nil
}

// Close flushes pending writes and releases the mmap and temp file.
func (c *seenCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.added > 0 {
		if err := c.flushLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.mmap.Unmap(); err != nil {
		errs = append(errs, fmt.Errorf("unmap: %w", err))
	}
	if err := c.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close file: %w", err))
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("remove temp file: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close seen cache: %v", errs)
	}
	return nil
}
