// Package files discovers batch export files in the inbox and moves
// processed batches into the dated archive.
package files
