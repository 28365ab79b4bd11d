package main

import (
	"compress/gzip"
	"io"
	"os"

	"github.com/schollz/snapgrid/internal/store"
)

// loadSnapshots reads a gzip-compressed JSON export of the snapshot set,
// the demo-side persistence convenience mirroring the teacher's
// internal/storage.go save-file format. The core itself never touches a
// file; this lives in cmd only.
func loadSnapshots(st *store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return err
	}
	return st.LoadJSON(data)
}
