// Package camera provides functionality to parse the catalog served by a
// Ricoh GR camera's Wi-Fi HTTP API.
//
// # Catalog Parsing
//
// The camera answers GET /_gr/objs with a JSON document listing its
// directories ("tags") and the files inside them:
//
//	{"dirs":[{"name":"100RICOH","files":[{"n":"R0001.JPG","d":"2024-05-01T10:00:00"}]}]}
//
// Use the Parser to turn that document into Photo records:
//
//	parser := camera.NewParser(logger)
//	photos, err := parser.ParseCatalog(body)
//	if errors.Is(err, camera.ErrMalformedCatalog) {
//	    log.Fatal(err)
//	}
//
// # Untrusted Input
//
// Names and tags are used to build local paths and camera URLs, so they are
// reduced to ASCII letters, digits, '.', '-' and '_' before a Photo is
// created. Entries that are unusable are skipped; only a document that is
// not JSON or lacks the "dirs" array is an error.
package camera
