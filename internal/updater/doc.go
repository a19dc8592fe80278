// Package updater runs the fetch -> mutate -> submit cycle for one DOI.
//
// Update applies caller-requested state and URL changes. RetargetFileDOI
// implements the batch rewrite: it resolves a file DOI to its parent dataset,
// hides the dataset if it is findable, and points its URL at the dataset's
// resolver address. Every submitted or failed attempt is written to the
// journal when one is configured.
package updater
