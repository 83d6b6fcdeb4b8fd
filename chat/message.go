package chat

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TimestampLayout matches the ISO-8601 form browsers emit (millisecond precision, UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message represents a single chat turn. Every message stored in a channel has
// all three fields populated.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

type wireMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: FormatTimestamp(m.Timestamp),
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	ts, _ := ParseTimestamp(w.Timestamp)
	m.Role = w.Role
	m.Content = w.Content
	m.Timestamp = ts
	return nil
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 instant. The zero time is returned with
// false when s is not a valid instant.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// MessageLike is anything that may be coerced into a Message. The set of
// variants is closed: Message, Partial and Raw.
type MessageLike interface {
	messageLike()
}

// Partial is a message record with optional fields. Empty strings and the zero
// time count as absent. Type is the alternate role field some producers send.
type Partial struct {
	Role      string
	Type      string
	Content   string
	Timestamp time.Time
}

// Raw wraps an arbitrary decoded value, typically the result of decoding JSON
// into an interface{}. Maps are probed for message fields, anything else
// yields a default-filled message.
type Raw struct {
	Value any
}

func (Message) messageLike() {}
func (Partial) messageLike() {}
func (Raw) messageLike()     {}

// Normalizer fills in missing message fields. It is pure apart from its clock.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer(now func() time.Time) Normalizer {
	if now == nil {
		now = time.Now
	}
	return Normalizer{now: now}
}

// Normalize never fails: role defaults to the alternate type field, then to
// assistant; content defaults to empty; timestamp defaults to now.
func (n Normalizer) Normalize(in MessageLike) Message {
	var p Partial

	switch v := in.(type) {
	case Message:
		p = Partial{Role: v.Role, Content: v.Content, Timestamp: v.Timestamp}
	case *Message:
		if v != nil {
			p = Partial{Role: v.Role, Content: v.Content, Timestamp: v.Timestamp}
		}
	case Partial:
		p = v
	case *Partial:
		if v != nil {
			p = *v
		}
	case Raw:
		if inner, ok := v.Value.(MessageLike); ok {
			return n.Normalize(inner)
		}
		p = partialFromValue(v.Value)
	case *Raw:
		if v != nil {
			return n.Normalize(*v)
		}
	}

	msg := Message{
		Role:      p.Role,
		Content:   p.Content,
		Timestamp: p.Timestamp,
	}
	if msg.Role == "" {
		msg.Role = p.Type
	}
	if msg.Role == "" {
		msg.Role = RoleAssistant
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = n.now().UTC().Truncate(time.Millisecond)
	}
	return msg
}

// NormalizeAll coerces any slice into normalized messages. Values that are not
// slices or arrays produce an empty, non-nil result.
func (n Normalizer) NormalizeAll(messages any) []Message {
	likes := toLikes(messages)
	out := make([]Message, 0, len(likes))
	for _, like := range likes {
		out = append(out, n.Normalize(like))
	}
	return out
}

func toLikes(messages any) []MessageLike {
	switch v := messages.(type) {
	case nil:
		return nil
	case []Message:
		likes := make([]MessageLike, len(v))
		for i, m := range v {
			likes[i] = m
		}
		return likes
	case []MessageLike:
		return v
	case []Partial:
		likes := make([]MessageLike, len(v))
		for i, p := range v {
			likes[i] = p
		}
		return likes
	case []any:
		likes := make([]MessageLike, len(v))
		for i, item := range v {
			likes[i] = toLike(item)
		}
		return likes
	}

	rv := reflect.ValueOf(messages)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	likes := make([]MessageLike, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		likes[i] = toLike(rv.Index(i).Interface())
	}
	return likes
}

func toLike(item any) MessageLike {
	if like, ok := item.(MessageLike); ok {
		return like
	}
	return Raw{Value: item}
}

func partialFromValue(value any) Partial {
	var p Partial

	switch v := value.(type) {
	case map[string]any:
		p.Role = stringField(v["role"])
		p.Type = stringField(v["type"])
		p.Content = textField(v["content"])
		p.Timestamp = timeField(v["timestamp"])
	case map[string]string:
		p.Role = v["role"]
		p.Type = v["type"]
		p.Content = v["content"]
		p.Timestamp, _ = ParseTimestamp(v["timestamp"])
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err == nil {
			return partialFromValue(decoded)
		}
	}

	return p
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// textField renders a decoded JSON value as text. Falsy values (null, false,
// 0, "") count as absent; other scalars keep their JSON spelling and objects
// and arrays are kept as compact JSON.
func textField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func timeField(v any) time.Time {
	switch t := v.(type) {
	case string:
		ts, _ := ParseTimestamp(t)
		return ts
	case time.Time:
		return t
	}
	return time.Time{}
}
