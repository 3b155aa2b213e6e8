package tier

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stratacache/strata/internal/types"
)

// fakeBackend is a scripted in-memory backend for exercising the level and
// aggregator orchestration: artificial read delays, injected errors, write
// rejection, and a log of write-shaped calls in arrival order.
type fakeBackend struct {
	name string

	mu   sync.Mutex
	data map[string][]byte

	getDelay     time.Duration
	getErr       error
	setErr       error
	rejectWrites bool

	// Closed when a delayed Get observes its context being cancelled.
	cancelObserved chan struct{}

	getCalls int
	writeLog []string
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{
		name: name,
		data: make(map[string][]byte),
	}
}

func (f *fakeBackend) seed(key, value string) *fakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = []byte(value)
	return f
}

func (f *fakeBackend) stored(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return string(v), ok
}

func (f *fakeBackend) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writeLog))
	copy(out, f.writeLog)
	return out
}

func (f *fakeBackend) logWrite(op, key string) {
	f.writeLog = append(f.writeLog, f.name+":"+op+":"+key)
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()

	if f.getDelay > 0 {
		select {
		case <-time.After(f.getDelay):
		case <-ctx.Done():
			if f.cancelObserved != nil {
				close(f.cancelObserved)
			}
			return nil, ctx.Err()
		}
	}
	if f.getErr != nil {
		return nil, f.getErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, types.ErrNotFound
	}
	return v, nil
}

func (f *fakeBackend) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *fakeBackend) Set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("Set", key)
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.rejectWrites {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeBackend) Add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("Add", key)
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, exists := f.data[key]; exists || f.rejectWrites {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeBackend) Replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("Replace", key)
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, exists := f.data[key]; !exists || f.rejectWrites {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeBackend) SetAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("SetAll", "")
	if f.setErr != nil {
		return f.setErr
	}
	for k, v := range items {
		f.data[k] = v
	}
	return nil
}

func (f *fakeBackend) Remove(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("Remove", key)
	if f.setErr != nil {
		return false, f.setErr
	}
	_, existed := f.data[key]
	delete(f.data, key)
	return existed, nil
}

func (f *fakeBackend) RemoveAll(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("RemoveAll", "")
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeBackend) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("Increment", key)
	if f.setErr != nil {
		return 0, f.setErr
	}
	cur, _ := strconv.ParseInt(string(f.data[key]), 10, 64)
	cur += delta
	f.data[key] = []byte(strconv.FormatInt(cur, 10))
	return cur, nil
}

func (f *fakeBackend) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	return f.Increment(ctx, key, -delta)
}

func (f *fakeBackend) FlushAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logWrite("FlushAll", "")
	f.data = make(map[string][]byte)
	return nil
}

func (f *fakeBackend) Close() error { return nil }

var _ types.Backend = (*fakeBackend)(nil)
