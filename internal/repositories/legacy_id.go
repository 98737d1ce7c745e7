package repositories

import "unicode/utf16"

// LegacyIDVersion identifies the derivation below. Bump it, and migrate stored
// IDs, if the function ever changes.
const LegacyIDVersion = 1

// LegacyID derives the integer key the desktop application expects from a store
// document ID. It reproduces Java's String.hashCode: h = 31*h + c over UTF-16 code
// units with 32-bit wraparound.
//
// Write-back after create and the read fallback for documents without a stored
// key both go through this function, so they cannot disagree.
func LegacyID(docID string) int {
	var h int32
	for _, c := range utf16.Encode([]rune(docID)) {
		h = 31*h + int32(c)
	}
	return int(h)
}
