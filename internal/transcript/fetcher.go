package transcript

import (
	"context"
	"errors"
	"net/url"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
)

// ErrNoTranscript is returned by a Client when the upstream reports the
// video has no captions, as opposed to the call itself failing.
var ErrNoTranscript = errors.New("video has no transcript")

// DefaultMaxAttempts bounds the proxy retry loop per fetch.
const DefaultMaxAttempts = 5

// PoolManager is what the fetcher needs from the proxy subsystem. It
// only borrows one candidate per attempt and reports failures back;
// pool membership is never touched from here.
type PoolManager interface {
	RefreshIfNeeded(ctx context.Context)
	NextProxy() *proxy.Candidate
	ReportFailure(c *proxy.Candidate)
}

// Client performs one transcript call. A nil proxyURL means a direct
// connection.
type Client interface {
	Fetch(ctx context.Context, videoID string, proxyURL *url.URL) (*Transcript, error)
}

type Fetcher struct {
	pool        PoolManager
	client      Client
	logger      logs.Logger
	useProxies  bool
	maxAttempts int
}

type FetcherOption func(*Fetcher)

// WithoutProxies makes every fetch go direct, skipping the pool.
func WithoutProxies() FetcherOption {
	return func(f *Fetcher) { f.useProxies = false }
}

func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

func NewFetcher(pool PoolManager, client Client, logger logs.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		pool:        pool,
		client:      client,
		logger:      logger,
		useProxies:  true,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the transcript for one video: rotate through pool
// proxies up to maxAttempts, then one direct attempt. Each iteration
// ends in success, a retryable failure that moves to the next proxy,
// or a no-transcript verdict that stops everything.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	var lastErr error

	if f.useProxies {
		f.pool.RefreshIfNeeded(ctx)

		for attempt := 0; attempt < f.maxAttempts; attempt++ {
			candidate := f.pool.NextProxy()
			if candidate == nil {
				f.logger.Debug("proxy pool empty, going direct", "video_id", videoID)
				break
			}

			t, err := f.client.Fetch(ctx, videoID, candidate.URL())
			if err == nil {
				f.logger.Info("transcript fetched via proxy",
					"video_id", videoID, "proxy", candidate.Address(), "attempt", attempt+1)
				return t, nil
			}
			if errors.Is(err, ErrNoTranscript) {
				return nil, &UnavailableError{VideoID: videoID, Reason: ReasonNoTranscript, Err: err}
			}

			f.pool.ReportFailure(candidate)
			lastErr = err
		}
	}

	t, err := f.client.Fetch(ctx, videoID, nil)
	if err == nil {
		f.logger.Info("transcript fetched directly", "video_id", videoID)
		return t, nil
	}
	if errors.Is(err, ErrNoTranscript) {
		return nil, &UnavailableError{VideoID: videoID, Reason: ReasonNoTranscript, Err: err}
	}

	if lastErr == nil {
		lastErr = err
	}
	return nil, &UnavailableError{VideoID: videoID, Reason: ReasonAllConnectionsFailed, Err: lastErr}
}
