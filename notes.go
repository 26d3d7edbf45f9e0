package tradebook

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KV is the key-value storage used for notes, diaries and settings.
// Values are stored as JSON.
type KV interface {
	// Get decodes the value of key into v. It returns false if the key does not exist.
	Get(key string, v any) (bool, error)
	Put(key string, v any) error
	Delete(key string) error
	// Keys returns the sorted keys starting with prefix.
	Keys(prefix string) ([]string, error)
}

const (
	notePrefix   = "note/"
	diaryPrefix  = "diary/"
	settingsKey  = "settings"
	defaultFeeds = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%5EGSPC&region=US&lang=en-US"
)

// Note is a study note.
type Note struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// SaveNote creates or updates a note. A note without id is given one.
// Created is kept from the stored note, Updated is set to now.
func SaveNote(kv KV, n Note) (Note, error) {
	now := time.Now().UTC()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	var old Note
	found, err := kv.Get(notePrefix+n.ID, &old)
	if err != nil {
		return n, fmt.Errorf("could not read note %q: %w", n.ID, err)
	}
	if found {
		n.Created = old.Created
	} else if n.Created.IsZero() {
		n.Created = now
	}
	n.Updated = now
	if err := kv.Put(notePrefix+n.ID, n); err != nil {
		return n, fmt.Errorf("could not save note %q: %w", n.ID, err)
	}
	return n, nil
}

// GetNote returns the note with this id.
func GetNote(kv KV, id string) (Note, error) {
	var n Note
	found, err := kv.Get(notePrefix+id, &n)
	if err != nil {
		return n, fmt.Errorf("could not read note %q: %w", id, err)
	}
	if !found {
		return n, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	return n, nil
}

// ListNotes returns every note, most recently updated first.
// If tag is not empty only notes with this tag are returned.
func ListNotes(kv KV, tag string) ([]Note, error) {
	keys, err := kv.Keys(notePrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list notes: %w", err)
	}
	notes := make([]Note, 0, len(keys))
	for _, key := range keys {
		var n Note
		if _, err := kv.Get(key, &n); err != nil {
			return nil, fmt.Errorf("could not read %q: %w", key, err)
		}
		if tag != "" && !slices.Contains(n.Tags, tag) {
			continue
		}
		notes = append(notes, n)
	}
	slices.SortStableFunc(notes, func(a, b Note) int { return b.Updated.Compare(a.Updated) })
	return notes, nil
}

// DeleteNote deletes a note.
func DeleteNote(kv KV, id string) error {
	if err := kv.Delete(notePrefix + id); err != nil {
		return fmt.Errorf("could not delete note %q: %w", id, err)
	}
	return nil
}

// Diary is the market diary of one day.
type Diary struct {
	Date Date     `json:"date"`
	Mood string   `json:"mood,omitempty"` // free text, e.g. "calm" or "fearful"
	Body string   `json:"body"`
	Tags []string `json:"tags,omitempty"`
}

// SaveDiary stores the diary of its date, replacing any previous one.
func SaveDiary(kv KV, d Diary) error {
	if d.Date.IsZero() {
		return fmt.Errorf("diary date is missing")
	}
	if err := kv.Put(diaryPrefix+d.Date.String(), d); err != nil {
		return fmt.Errorf("could not save diary of %v: %w", d.Date, err)
	}
	return nil
}

// GetDiary returns the diary of a day. It returns false if there is none.
func GetDiary(kv KV, on Date) (Diary, bool, error) {
	var d Diary
	found, err := kv.Get(diaryPrefix+on.String(), &d)
	if err != nil {
		return d, false, fmt.Errorf("could not read diary of %v: %w", on, err)
	}
	return d, found, nil
}

// ListDiaries returns the diaries in ascending date order.
// month is a "YYYY-MM" filter, empty for all months.
func ListDiaries(kv KV, month string) ([]Diary, error) {
	keys, err := kv.Keys(diaryPrefix + month)
	if err != nil {
		return nil, fmt.Errorf("could not list diaries: %w", err)
	}
	res := make([]Diary, 0, len(keys))
	for _, key := range keys {
		var d Diary
		if _, err := kv.Get(key, &d); err != nil {
			return nil, fmt.Errorf("could not read %q: %w", key, err)
		}
		res = append(res, d)
	}
	slices.SortFunc(res, func(a, b Diary) int { return cmp.Compare(a.Date.String(), b.Date.String()) })
	return res, nil
}

// Settings are the user preferences.
type Settings struct {
	Currency  string   `json:"currency"`            // ISO 4217 code used to format amounts
	Feeds     []string `json:"feeds,omitempty"`     // RSS feed URLs
	Watchlist []string `json:"watchlist,omitempty"` // quote symbols
}

// DefaultSettings returns the settings used when none were saved.
func DefaultSettings() Settings {
	return Settings{
		Currency: DefaultCurrency,
		Feeds:    []string{defaultFeeds},
	}
}

// LoadSettings returns the saved settings, or DefaultSettings.
func LoadSettings(kv KV) (Settings, error) {
	return LoadSettingsWith(kv, DefaultSettings())
}

// LoadSettingsWith returns the saved settings, or defaults when none were saved.
func LoadSettingsWith(kv KV, defaults Settings) (Settings, error) {
	s := defaults
	if _, err := kv.Get(settingsKey, &s); err != nil {
		return s, fmt.Errorf("could not read settings: %w", err)
	}
	s.Currency = strings.ToUpper(cmp.Or(s.Currency, DefaultCurrency))
	return s, nil
}

// SaveSettings stores the settings.
func SaveSettings(kv KV, s Settings) error {
	s.Currency = strings.ToUpper(cmp.Or(s.Currency, DefaultCurrency))
	if err := kv.Put(settingsKey, s); err != nil {
		return fmt.Errorf("could not save settings: %w", err)
	}
	return nil
}
