package models

import (
	"net/url"
)

// RouteKind is the navigation target chosen for a submitted query
type RouteKind string

const (
	RouteArtist    RouteKind = "artist"
	RouteTrack     RouteKind = "track"
	RouteSearch    RouteKind = "search"
	RouteNoResults RouteKind = "no_results"
)

// NoResultsNotice is shown when a query resolves to nothing
const NoResultsNotice = "No results found"

// Route is the outcome of resolving a full query
type Route struct {
	Kind   RouteKind `json:"kind"`
	Artist string    `json:"artist,omitempty"`
	Track  string    `json:"track,omitempty"`
	Query  string    `json:"query,omitempty"`
	Notice string    `json:"notice,omitempty"`
}

func ArtistRoute(name string) Route {
	return Route{Kind: RouteArtist, Artist: name}
}

func TrackRoute(artist, track string) Route {
	return Route{Kind: RouteTrack, Artist: artist, Track: track}
}

func SearchRoute(query string) Route {
	return Route{Kind: RouteSearch, Query: query}
}

func NoResultsRoute(query string) Route {
	return Route{Kind: RouteNoResults, Query: query, Notice: NoResultsNotice}
}

// Navigates reports whether the route leads to a page.
func (r Route) Navigates() bool {
	return r.Kind != RouteNoResults
}

// Path returns the client-side path for the route. Path segments are
// percent-encoded; a NoResults route has no path.
func (r Route) Path() string {
	switch r.Kind {
	case RouteArtist:
		return "/artist/" + url.PathEscape(r.Artist)
	case RouteTrack:
		return "/track/" + url.PathEscape(r.Artist) + "/" + url.PathEscape(r.Track)
	case RouteSearch:
		return "/search?q=" + url.QueryEscape(r.Query)
	default:
		return ""
	}
}
