// Package theme owns the light/dark/system theme preference. A Store
// restores the preference from prefs storage, resolves system against the
// desktop colour scheme signal, and notifies observers and the UI root
// annotator when the effective theme changes.
package theme
