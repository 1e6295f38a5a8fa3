// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achtbit/zwart/internal/qbittorrent"
)

func sampleTorrents() []qbittorrent.Torrent {
	return []qbittorrent.Torrent{
		{Hash: "aaa", Name: "Movie.Name.2020.1080p.BluRay.x264-GROUP", State: "downloading", Progress: 0.4, Size: 1073741824, ETA: 1800, AddedOn: 100, Category: "movies"},
		{Hash: "bbb", Name: "Show.Name.S05E09.720p.WEBRip.h264-TEAM", State: "stalledUP", Progress: 1, Size: 536870912, ETA: 8640000, AddedOn: 200},
		{Hash: "ccc", Name: "Ubuntu ISO", State: "pausedUP", Progress: 1, Size: 4831838208, ETA: 8640000, AddedOn: 300, Category: "linux"},
	}
}

func TestBuildCompletedBucket(t *testing.T) {
	list := sampleTorrents()
	list[1].State = "uploading" // seeding, still complete

	views := Build(list, nil, Filters{Status: FilterCompleted, SortBy: "added_on"})
	require.Len(t, views, 2)
	assert.Equal(t, "bbb", views[0].Hash)
	assert.Equal(t, "ccc", views[1].Hash)
}

func TestBuildCompletedPausedUploadIsCompleted(t *testing.T) {
	list := []qbittorrent.Torrent{
		{Hash: "aaa", Name: "one", State: "downloading", Progress: 0.4},
		{Hash: "bbb", Name: "two", State: "pausedUP", Progress: 1},
		{Hash: "ccc", Name: "three", State: "uploading", Progress: 0.9},
	}

	views := Build(list, nil, Filters{Status: FilterCompleted})
	require.Len(t, views, 1)
	assert.Equal(t, "bbb", views[0].Hash)
	assert.Equal(t, StatusCompleted, views[0].Status)
}

func TestBuildSearchIsCaseInsensitiveSubstring(t *testing.T) {
	views := Build(sampleTorrents(), nil, Filters{Search: "ubuntu"})
	require.Len(t, views, 1)
	assert.Equal(t, "ccc", views[0].Hash)

	views = Build(sampleTorrents(), nil, Filters{Search: "name"})
	assert.Len(t, views, 2)
}

func TestBuildCategoryFilter(t *testing.T) {
	views := Build(sampleTorrents(), nil, Filters{Category: "movies"})
	require.Len(t, views, 1)
	assert.Equal(t, "aaa", views[0].Hash)

	views = Build(sampleTorrents(), nil, Filters{Category: UncategorizedFilter})
	require.Len(t, views, 1)
	assert.Equal(t, "bbb", views[0].Hash)
}

func TestBuildTagFilter(t *testing.T) {
	views := Build(sampleTorrents(), nil, Filters{Tag: &Tag{Kind: "resolution", Value: "1080p"}})
	require.Len(t, views, 1)
	assert.Equal(t, "aaa", views[0].Hash)

	views = Build(sampleTorrents(), nil, Filters{Tag: &Tag{Kind: "resolution", Value: "4320p"}})
	assert.Empty(t, views)
}

func TestBuildDecoratesRows(t *testing.T) {
	categories := map[string]qbittorrent.Category{
		"movies": {Name: "movies", SavePath: "/downloads/movies"},
	}

	views := Build(sampleTorrents(), categories, Filters{SortBy: "added_on"})
	require.Len(t, views, 3)

	first := views[0]
	assert.Equal(t, "Movie Name", first.Title)
	assert.Equal(t, "movies", first.CategoryName)
	assert.Equal(t, StatusDownloading, first.Status)
	assert.Equal(t, "1.00 GB", first.SizeHuman)
	assert.Equal(t, "0h 30m", first.ETAHuman)

	assert.Equal(t, "∞", views[1].ETAHuman)
	assert.Equal(t, "Uncategorized", views[1].CategoryName)
}

func TestBuildOutputIsSubsetPreservingOrder(t *testing.T) {
	list := sampleTorrents()

	// Same AddedOn forces the sort to fall back on input order.
	for i := range list {
		list[i].AddedOn = 100
	}

	views := Build(list, nil, Filters{SortBy: "added_on"})
	require.Len(t, views, 3)
	assert.Equal(t, "aaa", views[0].Hash)
	assert.Equal(t, "bbb", views[1].Hash)
	assert.Equal(t, "ccc", views[2].Hash)
}

func TestBuildSortByNameCaseInsensitive(t *testing.T) {
	list := []qbittorrent.Torrent{
		{Hash: "1", Name: "banana"},
		{Hash: "2", Name: "Apple"},
		{Hash: "3", Name: "cherry"},
	}

	views := Build(list, nil, Filters{SortBy: "name"})
	require.Len(t, views, 3)
	assert.Equal(t, "Apple", views[0].Name)
	assert.Equal(t, "banana", views[1].Name)
	assert.Equal(t, "cherry", views[2].Name)
}

func TestBuildSortByETAKeepsInfiniteLast(t *testing.T) {
	list := []qbittorrent.Torrent{
		{Hash: "1", Name: "stuck", ETA: 8640000},
		{Hash: "2", Name: "soon", ETA: 60},
		{Hash: "3", Name: "later", ETA: 3600},
	}

	asc := Build(list, nil, Filters{SortBy: "eta"})
	require.Len(t, asc, 3)
	assert.Equal(t, "soon", asc[0].Name)
	assert.Equal(t, "later", asc[1].Name)
	assert.Equal(t, "stuck", asc[2].Name)

	desc := Build(list, nil, Filters{SortBy: "eta", SortDesc: true})
	require.Len(t, desc, 3)
	assert.Equal(t, "later", desc[0].Name)
	assert.Equal(t, "soon", desc[1].Name)
	assert.Equal(t, "stuck", desc[2].Name)
}

func TestBuildDefaultSortIsNewestFirst(t *testing.T) {
	views := Build(sampleTorrents(), nil, Filters{})
	require.Len(t, views, 3)
	assert.Equal(t, "ccc", views[0].Hash)
	assert.Equal(t, "aaa", views[2].Hash)
}
