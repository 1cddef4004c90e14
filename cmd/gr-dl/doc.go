// Command gr-dl downloads photos from a Ricoh GR camera over its Wi-Fi API.
//
// Usage:
//
//	gr-dl [-f dng|jpg|all] [-F NAME] [-p PATH]
//
// Photos are saved as PATH/YYYY-MM-DD/NAME, grouped by capture date. Files
// already present are skipped, so re-running only fetches new photos.
//
// Exit status is 0 when the run completes, even if some photos failed to
// download. It is 1 for invalid arguments, an unusable download directory,
// or a catalog that cannot be fetched or parsed, and 130 on interrupt.
package main
