// Package recommend maps classified emotions to music playlists.
package recommend

import (
	"fmt"
	"net/url"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

var defaultPlaylists = [domain.EmotionCount]string{
	"https://open.spotify.com/playlist/37i9dQZF1DWXRqgorJj26U",
	"https://open.spotify.com/playlist/37i9dQZF1DX3YSRoSdA634",
	"https://open.spotify.com/playlist/37i9dQZF1DX4sWSpwq3LiO",
	"https://open.spotify.com/playlist/37i9dQZF1DXdPec7aLTmlC",
	"https://open.spotify.com/playlist/37i9dQZF1DWZeKCadgRdKQ",
	"https://open.spotify.com/playlist/37i9dQZF1DX7qK8ma5wgG1",
	"https://open.spotify.com/playlist/37i9dQZF1DX4fpCWaHOned",
}

// Entry is one row of the table.
type Entry struct {
	EmotionID int    `json:"emotion_id"`
	Emotion   string `json:"emotion"`
	URL       string `json:"url"`
}

// Table is an immutable emotion index to playlist URL mapping.
type Table struct {
	playlists [domain.EmotionCount]string
}

// NewDefaultTable returns the built-in table.
func NewDefaultTable() *Table {
	return &Table{playlists: defaultPlaylists}
}

// NewTable builds a table from exactly one absolute http(s) URL per emotion.
// An empty slice falls back to the built-in table.
func NewTable(playlists []string) (*Table, error) {
	if len(playlists) == 0 {
		return NewDefaultTable(), nil
	}
	if len(playlists) != domain.EmotionCount {
		return nil, fmt.Errorf("expected %d playlists, got %d", domain.EmotionCount, len(playlists))
	}

	t := &Table{}
	for i, raw := range playlists {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("playlist %d (%s): invalid URL %q", i, domain.Emotion(i), raw)
		}
		t.playlists[i] = raw
	}
	return t, nil
}

// Recommend returns the playlist for an emotion index.
func (t *Table) Recommend(index int) (string, error) {
	e, err := domain.EmotionFromIndex(index)
	if err != nil {
		return "", err
	}
	return t.playlists[e], nil
}

// Entries lists the table in index order.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, domain.EmotionCount)
	for _, e := range domain.Emotions() {
		entries = append(entries, Entry{
			EmotionID: e.Index(),
			Emotion:   e.String(),
			URL:       t.playlists[e],
		})
	}
	return entries
}
