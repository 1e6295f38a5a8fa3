// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

import (
	"cmp"
	"slices"
	"strings"

	"github.com/achtbit/zwart/internal/qbittorrent"
)

// Status buckets accepted by the filter stage.
const (
	FilterAll         = "all"
	FilterDownloading = "downloading"
	FilterSeeding     = "seeding"
	FilterCompleted   = "completed"
)

// UncategorizedFilter selects torrents with no category assigned.
const UncategorizedFilter = "uncategorized"

// Filters describes one view of the torrent list. Zero values mean "no
// filtering" for their field.
type Filters struct {
	Search   string
	Status   string
	Category string
	Tag      *Tag

	SortBy   string
	SortDesc bool
}

// View is a torrent decorated with the display fields the UI renders.
type View struct {
	qbittorrent.Torrent

	CategoryName string `json:"categoryName"`
	Status       string `json:"status"`
	Title        string `json:"title"`
	Tags         []Tag  `json:"tags"`
	SizeHuman    string `json:"sizeHuman"`
	DlSpeedHuman string `json:"dlspeedHuman"`
	UpSpeedHuman string `json:"upspeedHuman"`
	ETAHuman     string `json:"etaHuman"`
}

// Build runs the list pipeline: filter against the requested view, stable
// sort, then decorate each surviving row with derived display fields. The
// input slice is not modified and relative order of equal rows is preserved.
func Build(list []qbittorrent.Torrent, categories map[string]qbittorrent.Category, filters Filters) []View {
	views := make([]View, 0, len(list))

	for _, torrent := range list {
		if !matches(torrent, filters) {
			continue
		}

		classified := Classify(torrent.Name)

		view := View{
			Torrent:      torrent,
			CategoryName: categoryName(torrent.Category, categories),
			Status:       MapStatus(torrent.State, torrent.Progress),
			Title:        classified.Title,
			Tags:         classified.Tags,
			SizeHuman:    FormatSize(torrent.Size),
			DlSpeedHuman: FormatSpeed(torrent.DlSpeed),
			UpSpeedHuman: FormatSpeed(torrent.UpSpeed),
			ETAHuman:     FormatETA(torrent.ETA),
		}

		if filters.Tag != nil && !hasTag(view.Tags, *filters.Tag) {
			continue
		}

		views = append(views, view)
	}

	sortViews(views, filters.SortBy, filters.SortDesc)

	return views
}

func matches(torrent qbittorrent.Torrent, filters Filters) bool {
	if filters.Search != "" && !strings.Contains(strings.ToLower(torrent.Name), strings.ToLower(filters.Search)) {
		return false
	}

	switch filters.Status {
	case "", FilterAll:
	case FilterDownloading:
		if torrent.Progress >= 1 {
			return false
		}
	case FilterSeeding:
		if MapStatus(torrent.State, torrent.Progress) != StatusSeeding {
			return false
		}
	case FilterCompleted:
		if torrent.Progress != 1 {
			return false
		}
	default:
		return false
	}

	switch filters.Category {
	case "", FilterAll:
	case UncategorizedFilter:
		if torrent.Category != "" {
			return false
		}
	default:
		if torrent.Category != filters.Category {
			return false
		}
	}

	return true
}

func categoryName(category string, categories map[string]qbittorrent.Category) string {
	if c, ok := categories[category]; ok && c.Name != "" {
		return c.Name
	}
	return "Uncategorized"
}

func hasTag(tags []Tag, want Tag) bool {
	for _, tag := range tags {
		if tag.Kind == want.Kind && tag.Value == want.Value {
			return true
		}
	}
	return false
}

func sortViews(views []View, column string, desc bool) {
	if column == "" {
		column = "added_on"
		desc = true
	}

	var compare func(a, b View) int

	switch column {
	case "name":
		compare = func(a, b View) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case "size":
		compare = func(a, b View) int { return cmp.Compare(a.Size, b.Size) }
	case "progress":
		compare = func(a, b View) int { return cmp.Compare(a.Progress, b.Progress) }
	case "state":
		compare = func(a, b View) int { return strings.Compare(a.Status, b.Status) }
	case "num_seeds":
		compare = func(a, b View) int { return cmp.Compare(a.NumSeeds, b.NumSeeds) }
	case "num_leechs":
		compare = func(a, b View) int { return cmp.Compare(a.NumLeech, b.NumLeech) }
	case "dlspeed":
		compare = func(a, b View) int { return cmp.Compare(a.DlSpeed, b.DlSpeed) }
	case "upspeed":
		compare = func(a, b View) int { return cmp.Compare(a.UpSpeed, b.UpSpeed) }
	case "eta":
		// Torrents without a meaningful estimate sort last either direction.
		slices.SortStableFunc(views, func(a, b View) int {
			aInf := a.ETA < 0 || a.ETA >= InfiniteETA
			bInf := b.ETA < 0 || b.ETA >= InfiniteETA
			if aInf != bInf {
				if aInf {
					return 1
				}
				return -1
			}
			if desc {
				return cmp.Compare(b.ETA, a.ETA)
			}
			return cmp.Compare(a.ETA, b.ETA)
		})
		return
	case "added_on":
		compare = func(a, b View) int { return cmp.Compare(a.AddedOn, b.AddedOn) }
	default:
		compare = func(a, b View) int { return cmp.Compare(a.AddedOn, b.AddedOn) }
	}

	slices.SortStableFunc(views, func(a, b View) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}
