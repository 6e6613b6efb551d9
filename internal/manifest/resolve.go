package manifest

// ResolvePage locates the page for a 1-based page number.
//
// Selection is two-tier: a page with an explicit matching Number wins
// (first match in array order), otherwise the pages slice is treated as
// positionally ordered and index pageNumber-1 is used. This lets a manifest
// either declare explicit numbering (sparse or reordered) or rely purely
// on array position. Returns (nil, false) when neither tier yields a page.
func ResolvePage(m *Manifest, pageNumber int) (*Page, bool) {
	if m == nil || pageNumber < 1 {
		return nil, false
	}

	for i := range m.Pages {
		if n := m.Pages[i].Number; n != nil && *n == float64(pageNumber) {
			return &m.Pages[i], true
		}
	}

	if idx := pageNumber - 1; idx < len(m.Pages) {
		return &m.Pages[idx], true
	}

	return nil, false
}
