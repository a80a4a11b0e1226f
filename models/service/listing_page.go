package service

import (
	"encoding/base64"
	"strconv"
)

// ListingPage is one page of files in the relay-style shape the API
// layer returns.
type ListingPage struct {
	Edges    []*FileEdge `json:"edges"`
	PageInfo PageInfo    `json:"pageInfo"`
}

type FileEdge struct {
	Cursor string      `json:"cursor"`
	Node   *StoredFile `json:"node"`
}

type PageInfo struct {
	EndCursor       string `json:"endCursor"`
	GlobalCount     int    `json:"globalCount"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor"`
}

// NewListingPage returns the first `first` files as a page. If first
// is zero or negative, all files are returned. Listings are
// stateless, so there is never a previous page.
func NewListingPage(files []*StoredFile, first int) *ListingPage {
	total := len(files)
	count := total
	if first > 0 && first < total {
		count = first
	}
	edges := make([]*FileEdge, count)
	for i := 0; i < count; i++ {
		edges[i] = &FileEdge{
			Cursor: OffsetToCursor(i),
			Node:   files[i],
		}
	}
	pageInfo := PageInfo{
		GlobalCount: total,
		HasNextPage: count < total,
	}
	if count > 0 {
		pageInfo.StartCursor = edges[0].Cursor
		pageInfo.EndCursor = edges[count-1].Cursor
	}
	return &ListingPage{
		Edges:    edges,
		PageInfo: pageInfo,
	}
}

// Nodes returns the files on this page, in order.
func (p *ListingPage) Nodes() []*StoredFile {
	nodes := make([]*StoredFile, len(p.Edges))
	for i, edge := range p.Edges {
		nodes[i] = edge.Node
	}
	return nodes
}

// OffsetToCursor encodes a list offset as an opaque cursor.
func OffsetToCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte("arrayconnection:" + strconv.Itoa(offset)))
}
