// Package model defines the tree built by crawling directory-style
// HTML listings.
//
// A Node is either a directory (its URL ends with "/") or a leaf.
// Directories carry their children in the order the anchors appear on
// the directory's listing page.
package model
