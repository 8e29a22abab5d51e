package table

// PageLink is one element of the pagination control: a page button or a gap.
type PageLink struct {
	Page     int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageLinks lays out the pagination buttons. Up to seven pages are listed in
// full; beyond that the first and last page stay visible around a three-page
// window on the current page, with gaps marked by ellipses.
func PageLinks(current, total int) []PageLink {
	if total <= 0 {
		return []PageLink{}
	}
	link := func(p int) PageLink { return PageLink{Page: p, Current: p == current} }

	out := make([]PageLink, 0, 7)
	if total <= 7 {
		for p := 1; p <= total; p++ {
			out = append(out, link(p))
		}
		return out
	}

	out = append(out, link(1))
	if current > 3 {
		out = append(out, PageLink{Ellipsis: true})
	}
	for i := 0; i < 3; i++ {
		var p int
		switch {
		case current <= 3:
			p = i + 2
		case current >= total-2:
			p = total - 3 + i
		default:
			p = current - 1 + i
		}
		if p > 1 && p < total {
			out = append(out, link(p))
		}
	}
	if current < total-2 {
		out = append(out, PageLink{Ellipsis: true})
	}
	return append(out, link(total))
}
