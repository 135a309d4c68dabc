package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/metcalfc/lexi/internal/state"
)

// StorageKey is the fixed key of the persisted settings blob.
const StorageKey = "lexi.settings"

// record is the persisted shape. Speech rate is deliberately absent.
type record struct {
	Font          Font    `json:"font"`
	FontSize      float64 `json:"fontSize"`
	LineHeight    float64 `json:"lineHeight"`
	LetterSpacing float64 `json:"letterSpacing"`
	BgColor       string  `json:"bgColor"`
	TextColor     string  `json:"textColor"`
}

// Store loads and saves Settings through a key-value store.
type Store struct {
	kv     state.Store
	logger *slog.Logger
}

// NewStore wraps kv. A nil logger discards.
func NewStore(kv state.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger}
}

// Load overlays the persisted values onto Default. Missing, empty or
// corrupt blobs and malformed fields fall back to defaults silently.
func (s *Store) Load() Settings {
	out := Default()
	if s.kv == nil {
		return out
	}
	data, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		s.logger.Debug("settings read failed; using defaults", "error", err.Error())
		return out
	}
	if !ok || len(data) == 0 {
		return out
	}
	return Decode(data, out, s.logger)
}

// Save serializes the persisted fields of st unconditionally.
func (s *Store) Save(st Settings) error {
	if s.kv == nil {
		return nil
	}
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := s.kv.Set(StorageKey, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Reset removes the persisted blob.
func (s *Store) Reset() error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Delete(StorageKey)
}

// Encode returns the deterministic persisted form of st.
func Encode(st Settings) ([]byte, error) {
	st = st.Clamp()
	return json.Marshal(record{
		Font:          st.Font,
		FontSize:      st.FontSizePx,
		LineHeight:    st.LineHeight,
		LetterSpacing: st.LetterSpacingPx,
		BgColor:       st.BackgroundColor,
		TextColor:     st.TextColor,
	})
}

// Decode overlays each well-formed field of data onto base. Out-of-range
// numbers are clamped; fields of the wrong type, unknown fonts and bad
// colors keep the base value.
func Decode(data []byte, base Settings, logger *slog.Logger) Settings {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		logger.Debug("settings blob unparsable; using defaults", "error", err.Error())
		return base
	}

	out := base
	if v, ok := stringField(fields, "font"); ok {
		if f, ok := ParseFont(v); ok {
			out.Font = f
		}
	}
	if v, ok := numberField(fields, "fontSize"); ok {
		out.FontSizePx = FontSizeRange.Clamp(v)
	}
	if v, ok := numberField(fields, "lineHeight"); ok {
		out.LineHeight = LineHeightRange.Clamp(v)
	}
	if v, ok := numberField(fields, "letterSpacing"); ok {
		out.LetterSpacingPx = LetterSpacingRange.Clamp(v)
	}
	if v, ok := stringField(fields, "bgColor"); ok {
		if c, ok := NormalizeColor(v); ok {
			out.BackgroundColor = c
		}
	}
	if v, ok := stringField(fields, "textColor"); ok {
		if c, ok := NormalizeColor(v); ok {
			out.TextColor = c
		}
	}
	return out
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
