package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Record is one server entity: column key to scalar value. Numbers decode
// as json.Number so ids keep their textual form.
type Record map[string]any

// String formats the value under key for display and form pre-fill.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// ID returns the identifier stored under key.
func (r Record) ID(key string) string {
	return r.String(key)
}

// Envelope is the decoded `{success, data, ...}` body every endpoint returns.
type Envelope struct {
	Success    bool
	Data       json.RawMessage
	Page       int
	TotalPages int
	Total      int
	Message    string
	Raw        []byte
}

// Page is one list-endpoint result.
type Page struct {
	Rows       []Record
	Page       int
	TotalPages int
	Total      int
}

func decodeEnvelope(raw []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &Envelope{Success: true}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("body is not JSON")
	}
	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		// bare arrays are accepted as data
		return &Envelope{Success: true, Data: json.RawMessage(trimmed), Raw: trimmed}, nil
	}
	env := &Envelope{Raw: trimmed, Success: true}
	if s := root.Get("success"); s.Exists() {
		env.Success = s.Bool()
	}
	if d := root.Get("data"); d.Exists() {
		env.Data = json.RawMessage(d.Raw)
	}
	env.Page = int(root.Get("page").Int())
	env.TotalPages = int(root.Get("totalPages").Int())
	env.Total = int(root.Get("total").Int())
	env.Message = root.Get("message").String()
	return env, nil
}

// errorMessages collects server-provided error text from the shapes the
// API is known to produce: a string, an object with a message, or an array
// of validation entries.
func errorMessages(raw []byte) []string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	root := gjson.ParseBytes(raw)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}

	switch e := root.Get("error"); {
	case e.Type == gjson.String:
		add(e.String())
	case e.IsObject():
		add(e.Get("message").String())
	}

	errs := root.Get("errors")
	if errs.IsArray() {
		for _, item := range errs.Array() {
			switch {
			case item.Type == gjson.String:
				add(item.String())
			case item.IsObject():
				msg := item.Get("msg").String()
				if msg == "" {
					msg = item.Get("message").String()
				}
				add(msg)
			}
		}
	}

	if len(out) == 0 && root.Get("success").Exists() && !root.Get("success").Bool() {
		add(root.Get("message").String())
	}
	return out
}

func decodeRecords(data json.RawMessage) ([]Record, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []Record
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeStrings(data json.RawMessage) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("data is not an array")
	}
	var out []string
	for _, item := range parsed.Array() {
		if item.Type == gjson.Null {
			continue
		}
		out = append(out, item.String())
	}
	return out, nil
}
