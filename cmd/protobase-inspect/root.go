package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/protobase/pkg/storage"
)

var rootPointerCmd = &cobra.Command{
	Use:   "root",
	Short: "Print the space's current root pointer",
	RunE: func(cmd *cobra.Command, args []string) error {
		bp, err := storage.NewFileBlockProvider(spaceDir, storage.DefaultPageSize)
		if err != nil {
			return err
		}
		defer bp.Close()

		ptr, found, err := bp.GetCurrentRoot(context.Background())
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("no root published yet")
			return nil
		}
		fmt.Printf("transaction_id: %s\n", ptr.TransactionID)
		fmt.Printf("offset:         %d\n", ptr.Offset)
		return nil
	},
}
