// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

import (
	"regexp"
	"strings"
)

// Tag is one classified fragment of a release name, e.g. resolution=1080p.
type Tag struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// ClassifiedName is the display form of a release name: the title prefix
// with the classified fragments stripped, plus the fragments as tags.
type ClassifiedName struct {
	Title string `json:"title"`
	Tags  []Tag  `json:"tags"`
}

type namePattern struct {
	kind string
	re   *regexp.Regexp
}

// Patterns are evaluated independently against the full name, in this order.
// Each contributes at most one tag; tag output follows this declaration
// order, not position in the string.
var namePatterns = []namePattern{
	{"year", regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)},
	{"resolution", regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p)\b`)},
	{"quality", regexp.MustCompile(`(?i)\b(REMUX|PROPER|REPACK|EXTENDED|UNRATED|RETAIL|BLURAY|WEB-DL|WEBDL|WEBRip|BDRip|HDRip|DVDRip|HDTV)\b`)},
	{"codec", regexp.MustCompile(`(?i)\b(xx265|h264|h265|HEVC|XviD)\b`)},
	{"audio", regexp.MustCompile(`(?i)\b(DTS-HD MA|DTS-HD|DTS|DD|AAC|FLAC)\b`)},
	{"group", regexp.MustCompile(`-(\w+)$`)},
	{"season", regexp.MustCompile(`(?i)S(\d{2})`)},
	{"episode", regexp.MustCompile(`(?i)E(\d{2})`)},
	{"language", regexp.MustCompile(`(?i)\b(MULTi|DUAL|VOSTFR|SUBFRENCH)\b`)},
}

// Classify splits a release name into a display title and classification
// tags. The title is the prefix of the name up to the earliest matched
// fragment, with periods turned into spaces. Pure: identical input always
// yields identical output.
func Classify(name string) ClassifiedName {
	tags := []Tag{}
	titleEnd := len(name)

	for _, pattern := range namePatterns {
		match := pattern.re.FindStringSubmatch(name)
		if match == nil {
			continue
		}

		value := match[0]
		if pattern.kind == "group" {
			// Drop the leading hyphen; the token alone is the tag.
			value = match[1]
		}
		tags = append(tags, Tag{Kind: pattern.kind, Value: value})

		if idx := strings.Index(name, match[0]); idx >= 0 && idx < titleEnd {
			titleEnd = idx
		}
	}

	title := strings.TrimSpace(name[:titleEnd])
	title = strings.TrimSpace(strings.ReplaceAll(title, ".", " "))

	return ClassifiedName{Title: title, Tags: tags}
}
