package main

import (
	"math"
	"net/url"
	"strconv"
)

type Page struct {
	Num int
	URL string
}

type Pages []Page

type PaginationConfig struct {
	Page    int
	PerPage int
	Total   int
	URL     string
	Param   string
}

// Pagination builds the page links for the gallery. A single page yields no
// links; the current page carries no URL.
func Pagination(pc PaginationConfig) Pages {
	if pc.Total <= pc.PerPage {
		return make(Pages, 0)
	}
	count := int(math.Ceil(float64(pc.Total) / float64(pc.PerPage)))
	if pc.Page < 1 {
		pc.Page = 1
	}
	pURL, err := url.Parse(pc.URL)
	if err != nil {
		pURL = &url.URL{}
	}
	val := pURL.Query()
	pages := make(Pages, count)
	for i := 1; i <= count; i++ {
		target := ""
		if i != pc.Page {
			val.Set(pc.Param, strconv.Itoa(i))
			pURL.RawQuery = val.Encode()
			target = pURL.String()
		}
		pages[i-1] = Page{i, target}
	}
	return pages
}
