package util

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeBody returns body as UTF-8. Court pages and some sudact payloads are
// served as windows-1251, declared either in the Content-Type header or in a
// <meta charset>.
func DecodeBody(contentType string, body []byte) (string, error) {
	if isCP1251(contentType) || isCP1251(sniffMeta(body)) || !utf8.Valid(body) {
		out, err := charmap.Windows1251.NewDecoder().Bytes(body)
		if err != nil {
			return "", fmt.Errorf("decode windows-1251: %w", err)
		}
		return string(out), nil
	}
	return string(body), nil
}

func isCP1251(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "windows-1251") || strings.Contains(s, "cp1251")
}

func sniffMeta(body []byte) string {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	i := bytes.Index(head, []byte("charset="))
	if i < 0 {
		i = bytes.Index(head, []byte("CHARSET="))
	}
	if i < 0 {
		return ""
	}
	rest := bytes.TrimLeft(head[i+len("charset="):], "\"' ")
	end := bytes.IndexAny(rest, "\"'>; ")
	if end < 0 {
		end = len(rest)
	}
	return string(rest[:end])
}
