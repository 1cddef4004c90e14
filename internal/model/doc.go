// Package model defines the core data structures used throughout
// the gr-downloader application.
//
// # Photo
//
// Photo represents one file stored on the camera:
//
//	photo := model.NewPhoto("R0001.JPG", "100RICOH", captured)
//	fmt.Println(photo.URL(baseURL))      // Where to fetch it from
//	fmt.Println(photo.FilePath(basePath)) // Where it will be saved
//
// # Filtering
//
// Filter picks the photos to download, either by Format or by exact name:
//
//	f := model.Filter{Format: model.FormatJPG}
//	jpgs := f.Select(photos)
//
//	one := model.Filter{FileName: "R0001234.DNG"}.Select(photos)
package model
