// Package browser provides the single page handle the scrapers drive.
//
// Driver is implemented by Chrome, which controls a headless Chrome through
// the DevTools protocol with chromedp, and by Static, which fetches pages over
// plain HTTP and cannot interact with them. Open picks one from Options.
package browser
