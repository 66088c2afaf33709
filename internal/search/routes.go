package search

import (
	"net/url"
	"strings"
)

// Routes builds the storefront URLs a selection navigates to.
type Routes struct {
	ProductPath  string // product detail prefix, slug appended
	CategoryPath string // listing filtered by ?category=<slug>
	SearchPath   string // full-text listing, ?q=<query>
}

// DefaultRoutes matches the catalog frontend URL layout.
var DefaultRoutes = Routes{
	ProductPath:  "/catalog/product/",
	CategoryPath: "/catalog/menu/",
	SearchPath:   "/catalog/search/",
}

func (r Routes) Product(slug string) string {
	return withSlash(r.ProductPath) + url.PathEscape(slug) + "/"
}

func (r Routes) Category(slug string) string {
	return r.CategoryPath + "?" + url.Values{"category": {slug}}.Encode()
}

func (r Routes) Search(query string) string {
	return r.SearchPath + "?" + url.Values{"q": {query}}.Encode()
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
