// Package server is the web front-end for indextree.
//
// Routes:
//
//	GET  /              form asking for a root URL
//	POST /crawl         crawl the form's url and redirect to the artifact
//	GET  /trees/        list stored artifacts (?format=json for JSON)
//	GET  /trees/{name}  serve a stored artifact
//
// A crawl runs synchronously inside the POST request. Concurrent
// requests for the same root URL share a single crawl.
package server
