// Package download provides the download orchestration logic for
// offloading photos from the camera.
//
// # Manager
//
// The Manager coordinates the entire download process:
//
//  1. Fetch the catalog from {baseURL}/_gr/objs
//  2. Parse it into Photo records
//  3. Apply the format or file name filter
//  4. Download each photo into {basePath}/{YYYY-MM-DD}/{name}
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	summary, err := manager.Run(ctx, model.Filter{Format: model.FormatJPG}, basePath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d downloaded, %d skipped, %d failed\n", summary.Downloaded, summary.Skipped, summary.Failed)
//
// # Sequencing
//
// Photos are downloaded one at a time in catalog order. There is no retry:
// a failed photo is reported and the run moves on to the next one.
//
// # Idempotence
//
// A photo whose destination file already exists is skipped without contacting
// the camera, so re-running after an interruption only fetches what is
// missing. Failed transfers never leave a partial file behind.
//
// # Progress Tracking
//
// Log-style progress is reported via ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// Byte-level progress for the file in flight is reported via WithFileProgress.
package download
