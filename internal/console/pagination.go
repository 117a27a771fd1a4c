package console

import "strconv"

// PageCount is ceil(total/pageSize); zero when there is nothing to show.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

type PageLinkKind int

const (
	LinkPage PageLinkKind = iota
	LinkPrev
	LinkNext
	LinkBreak
)

// PageLink is one entry of the pager. Index is zero-based; Label is what the
// user sees.
type PageLink struct {
	Kind     PageLinkKind
	Index    int
	Label    string
	Current  bool
	Disabled bool
}

const (
	pagerMargin = 1
	pagerRange  = 3
)

// PageLinks lays out a pager for cursor within pageCount pages: previous and
// next links, the first and last pageMargin pages, a window of pageRange
// pages around the cursor, and a single break where pages are skipped.
func PageLinks(cursor, pageCount int) []PageLink {
	if pageCount <= 0 {
		return nil
	}

	links := []PageLink{{
		Kind:     LinkPrev,
		Index:    cursor - 1,
		Label:    "previous",
		Disabled: cursor <= 0,
	}}

	if pageCount <= pagerRange+2*pagerMargin {
		for i := 0; i < pageCount; i++ {
			links = append(links, pageLink(i, cursor))
		}
	} else {
		left := pagerRange / 2
		right := pagerRange - left - 1

		if cursor > pageCount-pagerRange/2-1 {
			right = pageCount - cursor - 1
			left = pagerRange - right - 1
		} else if cursor < pagerRange/2 {
			left = cursor
			right = pagerRange - left - 1
		}

		lastWasBreak := false
		for i := 0; i < pageCount; i++ {
			show := i < pagerMargin ||
				i >= pageCount-pagerMargin ||
				(i >= cursor-left && i <= cursor+right)

			if show {
				links = append(links, pageLink(i, cursor))
				lastWasBreak = false
				continue
			}

			if !lastWasBreak {
				links = append(links, PageLink{Kind: LinkBreak, Index: -1, Label: "..."})
				lastWasBreak = true
			}
		}
	}

	return append(links, PageLink{
		Kind:     LinkNext,
		Index:    cursor + 1,
		Label:    "next",
		Disabled: cursor >= pageCount-1,
	})
}

func pageLink(i, cursor int) PageLink {
	return PageLink{
		Kind:    LinkPage,
		Index:   i,
		Label:   strconv.Itoa(i + 1),
		Current: i == cursor,
	}
}
