// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyReleaseName(t *testing.T) {
	got := Classify("Movie.Name.2020.1080p.BluRay.x264-GROUP")

	assert.Equal(t, "Movie Name", got.Title)
	assert.Equal(t, []Tag{
		{Kind: "year", Value: "2020"},
		{Kind: "resolution", Value: "1080p"},
		{Kind: "quality", Value: "BluRay"},
		{Kind: "group", Value: "GROUP"},
	}, got.Tags)
}

func TestClassifySeries(t *testing.T) {
	got := Classify("Show.Name.S05E09.720p.WEBRip.h264-TEAM")

	assert.Equal(t, "Show Name", got.Title)
	assert.Equal(t, []Tag{
		{Kind: "resolution", Value: "720p"},
		{Kind: "quality", Value: "WEBRip"},
		{Kind: "codec", Value: "h264"},
		{Kind: "group", Value: "TEAM"},
		{Kind: "season", Value: "S05"},
		{Kind: "episode", Value: "E09"},
	}, got.Tags)
}

func TestClassifyNoMatches(t *testing.T) {
	got := Classify("plainfile.mkv")

	assert.Equal(t, "plainfile mkv", got.Title)
	assert.Empty(t, got.Tags)
}

func TestClassifyTagOrderFollowsDeclarationOrder(t *testing.T) {
	// The group token sits before the year in the string, but tag output
	// keeps declaration order.
	got := Classify("MULTi.Feature.1999.FLAC-CREW")

	kinds := make([]string, 0, len(got.Tags))
	for _, tag := range got.Tags {
		kinds = append(kinds, tag.Kind)
	}
	assert.Equal(t, []string{"year", "audio", "group", "language"}, kinds)
}

func TestClassifyPure(t *testing.T) {
	name := "Movie.Name.2020.2160p.REMUX.HEVC.DTS-HD.MA-GRP"

	first := Classify(name)
	second := Classify(name)
	assert.Equal(t, first, second)
}
