package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/inbucket/html2text"
)

const maxDescriptionChars = 160

var (
	listKeys     = []string{"items", "data", "content", "results", "registros"}
	totalKeys    = []string{"total", "totalItems", "totalCount", "totalRegistros"}
	pageKeys     = []string{"page", "pagina"}
	pageSizeKeys = []string{"pageSize", "tamanhoPagina"}
)

// decodePage accepts a bare array or an envelope object holding the list under a known key.
// Decoding into the typed entity keeps only the allow-listed fields.
func decodePage[T any](raw json.RawMessage) (Page[T], error) {
	var page Page[T]
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return page, fmt.Errorf("empty body")
	}

	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return page, err
		}
		return page, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return page, err
	}

keys:
	for _, key := range listKeys {
		value, ok := envelope[key]
		if !ok {
			continue
		}
		value = bytes.TrimSpace(value)
		if len(value) == 0 {
			continue
		}
		switch value[0] {
		case '[':
			if err := json.Unmarshal(value, &page.Items); err != nil {
				return page, err
			}
		case '{':
			inner, err := decodePage[T](value)
			if err != nil {
				return page, err
			}
			page = inner
		default:
			continue
		}
		break keys
	}

	if page.Items == nil {
		page.Items = []T{}
	}
	if n, ok := intFrom(envelope, totalKeys); ok {
		page.Total = n
	}
	if n, ok := intFrom(envelope, pageKeys); ok {
		page.Page = n
	}
	if n, ok := intFrom(envelope, pageSizeKeys); ok {
		page.PageSize = n
	}
	return page, nil
}

// decodeOne accepts the entity itself or an envelope with it under "data".
func decodeOne[T any](raw json.RawMessage) (T, error) {
	var out T
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return out, err
	}
	if inner, ok := envelope["data"]; ok && len(bytes.TrimSpace(inner)) > 0 && bytes.TrimSpace(inner)[0] == '{' {
		raw = inner
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func intFrom(envelope map[string]json.RawMessage, keys []string) (int, bool) {
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var f Flex
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		if n, err := strconv.Atoi(f.String()); err == nil {
			return n, true
		}
	}
	return 0, false
}

func compactServices(services []Service) {
	for i := range services {
		services[i].Description = compactDescription(services[i].Description)
	}
}

// compactDescription converts HTML to plain text, collapses whitespace and truncates.
func compactDescription(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if strings.ContainsRune(s, '<') {
		if text, err := html2text.FromString(s, html2text.Options{OmitLinks: true}); err == nil {
			s = text
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxDescriptionChars {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxDescriptionChars-1])) + "…"
}
