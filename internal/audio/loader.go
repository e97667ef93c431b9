package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// BuiltinAlarm names the synthesized alarm tone.
	BuiltinAlarm = "builtin:alarm"
	// BuiltinChime names the synthesized task completion chime.
	BuiltinChime = "builtin:chime"

	// builtinPrefix marks synthesized sources.
	builtinPrefix = "builtin:"
	// maxAssetSize caps downloaded and read assets.
	maxAssetSize = 32 << 20
)

var (
	// ErrUnknownBuiltin is returned for builtin sources that do not exist.
	ErrUnknownBuiltin = errors.New("unknown builtin sound")
	// ErrEmptyAsset is returned when a source yields no bytes.
	ErrEmptyAsset = errors.New("sound asset is empty")
	// errUnexpectedStatus is returned for non-200 HTTP responses.
	errUnexpectedStatus = errors.New("unexpected HTTP status")
)

// Asset is a loaded sound file.
type Asset struct {
	// Source is where the asset was loaded from.
	Source string
	// Ext is the file extension players use to detect the format, e.g. ".wav".
	Ext string
	// Data is the encoded audio file.
	Data []byte
}

// Loader loads sound assets and caches every successful load by source.
type Loader struct {
	// client fetches http(s) sources.
	client *http.Client

	// mu guards cache.
	mu sync.Mutex
	// cache holds loaded assets by source.
	cache map[string]Asset
}

// NewLoader creates a loader. A nil client uses http.DefaultClient.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}

	return &Loader{
		client: client,
		cache:  make(map[string]Asset),
	}
}

// Load returns the asset for source, which is a builtin name, an http(s) URL
// or a file path. Failed loads are not cached and can be retried.
func (l *Loader) Load(ctx context.Context, source string) (Asset, error) {
	l.mu.Lock()
	cached, ok := l.cache[source]
	l.mu.Unlock()

	if ok {
		return cached, nil
	}

	asset, err := l.load(ctx, source)
	if err != nil {
		return Asset{}, fmt.Errorf("load sound %q: %w", source, err)
	}

	if len(asset.Data) == 0 {
		return Asset{}, fmt.Errorf("load sound %q: %w", source, ErrEmptyAsset)
	}

	l.mu.Lock()
	l.cache[source] = asset
	l.mu.Unlock()

	return asset, nil
}

// Cached reports whether source has been loaded successfully.
func (l *Loader) Cached(source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.cache[source]

	return ok
}

// load dispatches on the source kind.
func (l *Loader) load(ctx context.Context, source string) (Asset, error) {
	switch {
	case strings.HasPrefix(source, builtinPrefix):
		return loadBuiltin(source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.download(ctx, source)
	default:
		return readFile(source)
	}
}

// loadBuiltin synthesizes a builtin tone.
func loadBuiltin(source string) (Asset, error) {
	switch source {
	case BuiltinAlarm:
		return Asset{Source: source, Ext: ".wav", Data: AlarmTone()}, nil
	case BuiltinChime:
		return Asset{Source: source, Ext: ".wav", Data: ChimeTone()}, nil
	default:
		return Asset{}, ErrUnknownBuiltin
	}
}

// download fetches an http(s) source.
func (l *Loader) download(ctx context.Context, source string) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("download: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("%w: %s", errUnexpectedStatus, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return Asset{}, fmt.Errorf("read body: %w", err)
	}

	return Asset{Source: source, Ext: extOf(path.Ext(req.URL.Path)), Data: data}, nil
}

// readFile reads a local source.
func readFile(source string) (Asset, error) {
	f, err := os.Open(filepath.Clean(source))
	if err != nil {
		return Asset{}, fmt.Errorf("open: %w", err)
	}

	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAssetSize))
	if err != nil {
		return Asset{}, fmt.Errorf("read: %w", err)
	}

	return Asset{Source: source, Ext: extOf(filepath.Ext(source)), Data: data}, nil
}

// extOf defaults missing extensions to WAV.
func extOf(ext string) string {
	if ext == "" {
		return ".wav"
	}

	return strings.ToLower(ext)
}
