// Package downloader fetches the best available audio track for a URL by
// shelling out to yt-dlp.
//
// Each fetch stages its output in a fresh run directory under the configured
// temp dir, so cleanup is a single directory removal and a failed download
// never leaves partial files behind. The component does not retry; retry
// policy, if any, belongs to the caller.
package downloader
