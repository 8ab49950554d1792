// Package callback encodes action/data pairs into Telegram callback_data
// tokens, which are limited to 64 bytes. Payloads that cannot be squeezed
// under the limit are parked in an in-memory table and referenced by a short
// id; that table does not survive a restart, so stale ids decode to an
// explicit "expired" sentinel instead of wrong data.
package callback

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// MaxTokenLen is Telegram's hard limit on callback_data bytes.
	MaxTokenLen = 64

	// ActionExpired is returned for stored tokens that are unknown or past
	// their retention window.
	ActionExpired = "callback_expired"

	// ActionUnknown is returned for tokens that look structured but cannot
	// be parsed.
	ActionUnknown = "unknown_callback"

	// storedPrefix is reserved for stored-payload ids. Direct action names
	// must never start with it.
	storedPrefix = "cb_"

	// DefaultRetention is how long stored payloads stay decodable.
	DefaultRetention = 24 * time.Hour
)

// keyAliases maps well-known payload keys to short forms so that slightly
// oversized payloads still fit inline. Both directions must stay unambiguous.
var keyAliases = map[string]string{
	"task_id": "tid",
	"team_id": "tmd",
	"region":  "rgn",
	"date":    "dte",
	"time":    "tim",
	"prayer":  "pry",
	"name":    "nme",
	"note":    "nte",
	"page":    "pgn",
}

// Decoded is the result of decoding a token. Decode never fails: unparseable
// or expired tokens come back with the corresponding sentinel action and the
// raw token under the "token" data key.
type Decoded struct {
	Action string
	Data   map[string]any
}

type record struct {
	action    string
	data      map[string]any
	createdAt time.Time
}

type envelope struct {
	Action string         `json:"a"`
	Data   map[string]any `json:"d"`
}

// Codec encodes and decodes callback tokens. It owns the fallback payload
// table; construct one per process and share it between the keyboard builders
// and the router.
type Codec struct {
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time

	mu     sync.Mutex
	nextID uint64
	stored map[uint64]record
}

// NewCodec creates a codec with the default 24h payload retention.
func NewCodec(logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Codec{
		logger:    logger.With("component", "callback_codec"),
		retention: DefaultRetention,
		now:       time.Now,
		stored:    make(map[uint64]record),
	}
}

// Encode produces a token for the given action and data. It never fails:
// payloads that do not fit inline fall back to the stored table.
//
// Strategies, first fit wins: the bare action for empty data, the JSON
// envelope, the envelope with aliased keys, then a stored-payload id.
func (c *Codec) Encode(action string, data map[string]any) string {
	if len(data) == 0 && len(action) <= MaxTokenLen && !strings.HasPrefix(action, storedPrefix) {
		return action
	}

	if raw, err := json.Marshal(envelope{Action: action, Data: data}); err == nil {
		if len(raw) <= MaxTokenLen {
			return string(raw)
		}
		if raw, err = json.Marshal(envelope{Action: action, Data: aliasKeys(data)}); err == nil && len(raw) <= MaxTokenLen {
			return string(raw)
		}
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.stored[id] = record{action: action, data: data, createdAt: c.now()}
	size := len(c.stored)
	c.mu.Unlock()

	c.logger.Debug("Callback payload stored", "action", action, "id", id, "table_size", size)
	return storedPrefix + strconv.FormatUint(id, 10)
}

// Decode maps a token back to the action/data pair that produced it, or to
// one of the sentinel actions. It never returns an error.
func (c *Codec) Decode(token string) Decoded {
	switch {
	case strings.HasPrefix(token, storedPrefix):
		return c.decodeStored(token)
	case strings.HasPrefix(token, "{"):
		return c.decodeEnvelope(token)
	default:
		return Decoded{Action: token, Data: map[string]any{}}
	}
}

func (c *Codec) decodeStored(token string) Decoded {
	id, err := strconv.ParseUint(strings.TrimPrefix(token, storedPrefix), 10, 64)
	if err != nil {
		return Decoded{Action: ActionUnknown, Data: map[string]any{"token": token}}
	}

	c.mu.Lock()
	rec, ok := c.stored[id]
	c.mu.Unlock()

	if !ok || c.now().Sub(rec.createdAt) > c.retention {
		c.logger.Debug("Stored callback missing or expired", "id", id, "found", ok)
		return Decoded{Action: ActionExpired, Data: map[string]any{"token": token}}
	}

	data := make(map[string]any, len(rec.data))
	for k, v := range rec.data {
		data[k] = v
	}
	return Decoded{Action: rec.action, Data: data}
}

func (c *Codec) decodeEnvelope(token string) Decoded {
	var env envelope
	if err := json.Unmarshal([]byte(token), &env); err != nil || env.Action == "" {
		c.logger.Debug("Unparseable structured callback", "token", token)
		return Decoded{Action: ActionUnknown, Data: map[string]any{"token": token}}
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return Decoded{Action: env.Action, Data: restoreKeys(env.Data)}
}

// Evict removes stored payloads older than the retention window and returns
// how many were dropped. Scheduled hourly; without it the table grows without
// bound.
func (c *Codec) Evict(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, rec := range c.stored {
		if now.Sub(rec.createdAt) > c.retention {
			delete(c.stored, id)
			evicted++
		}
	}
	if evicted > 0 {
		c.logger.Info("Evicted expired callback payloads", "evicted", evicted, "remaining", len(c.stored))
	}
	return evicted
}

// StoredCount reports the current fallback table size.
func (c *Codec) StoredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stored)
}

func aliasKeys(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if alias, ok := keyAliases[k]; ok {
			out[alias] = v
		} else {
			out[k] = v
		}
	}
	return out
}

func restoreKeys(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[restoreKey(k)] = v
	}
	return out
}

func restoreKey(k string) string {
	for long, short := range keyAliases {
		if k == short {
			return long
		}
	}
	return k
}

// String helpers for payload values: JSON numbers arrive as float64, but ids
// are produced as int64.

// Int64 reads an integer payload value.
func Int64(data map[string]any, key string) (int64, bool) {
	switch v := data[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// String reads a string payload value.
func String(data map[string]any, key string) (string, bool) {
	switch v := data[key].(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
