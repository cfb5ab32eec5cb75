package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/amonks/sixdegrees/cache"
	"github.com/amonks/sixdegrees/data"
	"github.com/amonks/sixdegrees/retry"
)

// New creates a new Spotify client with the given clientID and clientSecret.
// Without options it talks to the real API, retries with the default policy,
// paces itself to ten requests a second, and caches nothing.
func New(clientID, clientSecret string, opts ...Option) *Client {
	client := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		apiURL:       "https://api.spotify.com",
		tokenURL:     "https://accounts.spotify.com/api/token",
		retry:        retry.Default,
		limiter:      rate.NewLimiter(rate.Limit(10), 1),
		log:          log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type Client struct {
	mu sync.Mutex

	clientID     string
	clientSecret string

	apiURL   string
	tokenURL string

	cache   *cache.Cache
	retry   retry.Policy
	limiter *rate.Limiter
	log     *log.Logger

	accessToken string
	expiresAt   time.Time
}

type Option func(*Client)

// WithCache checks the given cache before every request and stores every
// response in it.
func WithCache(c *cache.Cache) Option {
	return func(spo *Client) { spo.cache = c }
}

// WithRetry replaces the default retry policy.
func WithRetry(p retry.Policy) Option {
	return func(spo *Client) { spo.retry = p }
}

// WithRateLimit paces requests to perSecond, replacing the default of ten.
func WithRateLimit(perSecond float64) Option {
	return func(spo *Client) { spo.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// WithBaseURLs points the client at another API host and token endpoint.
// Tests use it to talk to a local server.
func WithBaseURLs(apiURL, tokenURL string) Option {
	return func(spo *Client) {
		spo.apiURL = apiURL
		spo.tokenURL = tokenURL
	}
}

// SearchArtist looks an artist up by name. When several candidates come
// back, an exact name match (ignoring case) beats Spotify's own ranking,
// and the most popular exact match wins. Returns ErrNotFound if the search
// has no results at all.
func (spo *Client) SearchArtist(ctx context.Context, name string) (data.Artist, error) {
	query := url.Values{}
	query.Add("q", name)
	query.Add("type", "artist")
	query.Add("limit", "10")

	payload, err := spo.get(ctx, "/v1/search", query)
	if err != nil {
		return data.Artist{}, err
	}

	var results artistSearchPage
	if err := json.Unmarshal(payload, &results); err != nil {
		return data.Artist{}, fmt.Errorf("artist search decode error: %w", err)
	}

	items := results.Artists.Items
	if len(items) == 0 {
		return data.Artist{}, fmt.Errorf("no artist matching '%s': %w", name, ErrNotFound)
	}

	best := -1
	for i, item := range items {
		if !strings.EqualFold(item.Name, name) {
			continue
		}
		if best == -1 || item.Popularity > items[best].Popularity {
			best = i
		}
	}
	if best == -1 {
		best = 0
	}

	item := items[best]
	return data.Artist{
		SpotifyID:  item.ID,
		Name:       item.Name,
		ImageURL:   widestImage(item.Images),
		Followers:  item.Followers.Total,
		Popularity: item.Popularity,
		Genres:     item.Genres,
	}, nil
}

type artistSearchPage struct {
	Artists struct {
		Limit  int
		Offset int
		Total  int

		Next     string
		Previous string

		Items []artistItem
	}
}

type artistItem struct {
	ID        string
	Name      string
	Genres    []string
	Followers struct {
		Total int64
	}
	Images     []image
	Popularity int64
}

type image struct {
	Height int64
	Width  int64
	URL    string
}

// FetchArtist fetches one artist's metadata by id.
func (spo *Client) FetchArtist(ctx context.Context, artistSpotifyID string) (data.Artist, error) {
	payload, err := spo.get(ctx, fmt.Sprintf("/v1/artists/%s", artistSpotifyID), nil)
	if err != nil {
		return data.Artist{}, err
	}

	var item artistItem
	if err := json.Unmarshal(payload, &item); err != nil {
		return data.Artist{}, fmt.Errorf("artist decode error: %w", err)
	}

	return data.Artist{
		SpotifyID:  item.ID,
		Name:       item.Name,
		ImageURL:   widestImage(item.Images),
		Followers:  item.Followers.Total,
		Popularity: item.Popularity,
		Genres:     item.Genres,
	}, nil
}

// FetchArtistAlbums fetches an artist's releases of every type, including
// ones that only feature them, fifty at a time.
func (spo *Client) FetchArtistAlbums(ctx context.Context, artistSpotifyID string) ([]data.Album, error) {
	var albums []data.Album
	for offset := 0; offset < 1000; offset += 50 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := spo.fetchArtistAlbumsPage(ctx, artistSpotifyID, offset)
		if err != nil {
			return nil, err
		}
		for _, album := range resp.Items {
			var imageURL string
			if len(album.Images) > 0 {
				imageURL = album.Images[0].URL
			}
			artists := make([]data.Credit, len(album.Artists))
			for i, artist := range album.Artists {
				artists[i] = data.Credit{
					SpotifyID: artist.ID,
					Name:      artist.Name,
				}
			}
			albums = append(albums, data.Album{
				SpotifyID:            album.ID,
				Name:                 album.Name,
				Type:                 album.AlbumType,
				Group:                album.AlbumGroup,
				ImageURL:             imageURL,
				TotalTracks:          album.TotalTracks,
				ReleaseDate:          album.ReleaseDate,
				ReleaseDatePrecision: album.ReleaseDatePrecision,
				Artists:              artists,
			})
		}

		// intentionally not respecting the "next: null" pagination
		// thing here: a short page is a more reliable end signal.
		if len(resp.Items) < 50 {
			break
		}
	}
	return albums, nil
}

func (spo *Client) fetchArtistAlbumsPage(ctx context.Context, artistSpotifyID string, offset int) (*artistAlbumsPage, error) {
	query := url.Values{}
	query.Add("limit", "50")
	query.Add("offset", fmt.Sprintf("%d", offset))
	query.Add("include_groups", "album,single,compilation,appears_on")

	payload, err := spo.get(ctx, fmt.Sprintf("/v1/artists/%s/albums", artistSpotifyID), query)
	if err != nil {
		return nil, err
	}

	var results artistAlbumsPage
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("artist albums decode error: %w", err)
	}

	return &results, nil
}

type artistAlbumsPage struct {
	Limit  int
	Offset int
	Total  int

	Next     string
	Previous string

	Items []struct {
		ID          string
		Name        string
		AlbumType   string `json:"album_type"`
		AlbumGroup  string `json:"album_group"`
		TotalTracks int64  `json:"total_tracks"`
		Images      []struct {
			URL string
		}
		ReleaseDate          string `json:"release_date"`
		ReleaseDatePrecision string `json:"release_date_precision"`
		Artists              []struct {
			ID   string
			Name string
		}
	}
}

// FetchAlbumTracks fetches an album's track list, fifty at a time.
func (spo *Client) FetchAlbumTracks(ctx context.Context, albumSpotifyID string) ([]data.Track, error) {
	var tracks []data.Track
	for offset := 0; offset < 1000; offset += 50 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := spo.fetchAlbumTracksPage(ctx, albumSpotifyID, offset)
		if err != nil {
			return nil, err
		}
		for _, track := range resp.Items {
			artists := make([]data.Credit, len(track.Artists))
			for i, artist := range track.Artists {
				artists[i] = data.Credit{
					SpotifyID: artist.ID,
					Name:      artist.Name,
				}
			}
			tracks = append(tracks, data.Track{
				SpotifyID:      track.ID,
				Name:           track.Name,
				DurationMS:     track.DurationMS,
				AlbumSpotifyID: albumSpotifyID,
				DiscNumber:     track.DiscNumber,
				TrackNumber:    track.TrackNumber,
				Artists:        artists,
			})
		}
		if len(resp.Items) < 50 {
			break
		}
	}
	return tracks, nil
}

func (spo *Client) fetchAlbumTracksPage(ctx context.Context, albumSpotifyID string, offset int) (*albumTracksPage, error) {
	query := url.Values{}
	query.Add("limit", "50")
	query.Add("offset", fmt.Sprintf("%d", offset))

	payload, err := spo.get(ctx, fmt.Sprintf("/v1/albums/%s/tracks", albumSpotifyID), query)
	if err != nil {
		return nil, err
	}

	var results albumTracksPage
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("album tracks decode error: %w", err)
	}

	return &results, nil
}

type albumTracksPage struct {
	Limit  int
	Offset int
	Total  int

	Next     string
	Previous string

	Items []struct {
		ID         string
		Name       string
		DurationMS int64 `json:"duration_ms"`

		DiscNumber  int64 `json:"disc_number"`
		TrackNumber int64 `json:"track_number"`

		Artists []struct {
			ID   string
			Name string
		}
	}
}

func widestImage(images []image) string {
	var imageURL string
	var maxSize int64
	for _, image := range images {
		if image.Width > maxSize {
			imageURL = image.URL
			maxSize = image.Width
		}
	}
	return imageURL
}

// get fetches the given API path, reading through the cache when one is
// configured. The full URL, with its query keys in sorted order, doubles as
// the cache descriptor, so the same request always lands on the same entry.
// Misses go to the network under the retry policy: rate-limit responses
// wait out their Retry-After, transport trouble gets backoff, 404s give up
// immediately.
func (spo *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := spo.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	if spo.cache != nil {
		payload, err := spo.cache.Get(u)
		if err == nil {
			return payload, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			return nil, err
		}
	}

	var payload []byte
	err := spo.retry.Do(ctx, func(ctx context.Context) error {
		if err := spo.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("request error: %w", err))
		}

		token, err := spo.token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("request error: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			// the token died mid-session; clear it so the retry
			// fetches a fresh one
			spo.invalidateToken()
			return fmt.Errorf("authorization expired fetching '%s'", u)
		}
		if err := responseError(resp); err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) {
				spo.log.Warn("rate limited", "wait", rl.Wait, "url", u)
			}
			return fmt.Errorf("error fetching '%s': %w", u, err)
		}

		payload, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error reading response from '%s': %w", u, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if spo.cache != nil {
		if err := spo.cache.Put(u, payload); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

type tokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (spo *Client) token(ctx context.Context) (string, error) {
	spo.mu.Lock()
	defer spo.mu.Unlock()

	if spo.accessToken == "" || spo.expiresAt.Before(time.Now().Add(time.Second)) {
		if err := spo.fetchToken(ctx); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Bearer %s", spo.accessToken), nil
}

func (spo *Client) invalidateToken() {
	spo.mu.Lock()
	defer spo.mu.Unlock()

	spo.accessToken = ""
}

func (spo *Client) fetchToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, "POST", spo.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	up := fmt.Sprintf("%s:%s", spo.clientID, spo.clientSecret)
	credential := base64.StdEncoding.EncodeToString([]byte(up))
	req.Header.Set("Authorization", fmt.Sprintf("Basic %s", credential))
	req.Header.Set("Content-type", "application/x-www-form-urlencoded")

	requestAt := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request error: %w", err)
	}
	defer resp.Body.Close()
	if err := responseError(resp); err != nil {
		return fmt.Errorf("token fetch error: %w", err)
	}

	var result tokenResult
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&result); err != nil {
		return fmt.Errorf("token decode error: %w", err)
	}

	spo.accessToken = result.AccessToken
	spo.expiresAt = requestAt.Add(time.Duration(result.ExpiresIn) * time.Second)

	return nil
}
