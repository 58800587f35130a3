// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alpinetax/filingkit/cmd/filingkit/config"
	filingstorage "github.com/alpinetax/filingkit/services/filing/storage"
	filingbadger "github.com/alpinetax/filingkit/services/filing/storage/badger"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the configured user's saved wizard state",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Backend.UserID == "" {
		return fmt.Errorf("no user_id configured under backend in the config file")
	}

	if !resetYes {
		fmt.Printf("Delete all saved wizard state for user %s? [y/N] ", cfg.Backend.UserID)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	db, err := filingbadger.Open(filingbadger.DefaultConfig(cfg.Storage.Path))
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	defer db.Close()

	store := filingstorage.NewStore(db, nil)
	if err := store.ClearSnapshot(cmd.Context(), cfg.Backend.UserID); err != nil {
		return err
	}
	fmt.Println("Saved wizard state deleted.")
	return nil
}
