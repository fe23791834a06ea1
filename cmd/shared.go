package cmd

import (
	"fmt"

	"github.com/nilfs-go/cpfile/internal/blockstore"
	"github.com/nilfs-go/cpfile/internal/cpfile"
)

// openCpfile loads blockstore configuration, opens (or creates) the
// backing image at imagePath, and binds a cpfile handle to it.
func openCpfile() (*cpfile.Cpfile, *blockstore.FileStore, error) {
	cfg, err := blockstore.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	store, err := blockstore.Open(imagePath, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", imagePath, err)
	}

	cp, err := cpfile.Read(store, cfg.BlockSize, cfg.EntrySize, cfg.HeaderBytes, imagePath)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("read cpfile: %w", err)
	}

	return cp, store, nil
}
