// Package language normalizes language codes and ranks subtitle tracks by
// language preference.
//
// Ranking is a stable preorder: simplified Chinese with English first, then
// simplified Chinese, traditional Chinese with English, traditional Chinese,
// English, and everything else last. Free-text labels are inspected before
// language codes.
package language
