// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package candidates

import (
	"errors"
	"regexp"
	"strings"
)

var ErrMalformedShareText = errors.New("share text must contain a 'quoted name' followed by an https link")

// Delivery apps share a store as e.g. "Order from 'Pho Hoa' now! https://baemin.me/AbC12".
var shareTextPattern = regexp.MustCompile(`(?s)'([^']+)'.+?(https://[^\s]+)`)

// ParseShareText extracts the quoted store name and the first https link
// that follows it.
func ParseShareText(text string) (name, url string, err error) {
	m := shareTextPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", ErrMalformedShareText
	}
	name = strings.TrimSpace(m[1])
	if name == "" {
		return "", "", ErrMalformedShareText
	}
	return name, m[2], nil
}
