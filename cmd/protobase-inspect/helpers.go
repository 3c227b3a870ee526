package main

import (
	"os"
	"sort"

	"github.com/google/uuid"
)

// walFile is one WAL present in a space directory.
type walFile struct {
	id   uuid.UUID
	size int64
}

// listWALFiles enumerates the WALs in dir, oldest-by-name first. WAL
// files are named with the dashless hex form of their UUID, matching
// storage.FileBlockProvider.walFileName.
func listWALFiles(dir string) ([]walFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []walFile
	for _, e := range entries {
		if e.IsDir() || len(e.Name()) != 32 {
			continue
		}
		id, err := uuid.Parse(e.Name())
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, walFile{id: id, size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].id.String() < files[j].id.String() })
	return files, nil
}
