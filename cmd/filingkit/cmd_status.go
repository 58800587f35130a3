// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alpinetax/filingkit/cmd/filingkit/config"
	filingstorage "github.com/alpinetax/filingkit/services/filing/storage"
	filingbadger "github.com/alpinetax/filingkit/services/filing/storage/badger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local state for the configured user",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Backend.UserID == "" {
		return fmt.Errorf("no user_id configured under backend in the config file")
	}

	db, err := filingbadger.Open(filingbadger.DefaultConfig(cfg.Storage.Path))
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	defer db.Close()

	store := filingstorage.NewStore(db, nil)
	snap, err := store.LoadSnapshot(cmd.Context(), cfg.Backend.UserID)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Printf("No saved wizard state for user %s\n", cfg.Backend.UserID)
		return nil
	}

	docs := snap.FormData.AllDocuments()
	fmt.Printf("User:            %s\n", snap.UserID)
	fmt.Printf("Last saved:      %s\n", snap.LastSaved.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current step:    %d\n", snap.CurrentStep)
	fmt.Printf("Documents:       %d\n", len(docs))
	fmt.Printf("Dependents:      %d declared, %d entered\n", snap.NumberOfDependents, len(snap.Dependents))
	fmt.Printf("Income sources:  %d\n", len(snap.FormData.AdditionalIncomeSources))
	return nil
}
